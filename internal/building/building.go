// Package building models a building: its agents, thermal envelope, an
// optional heating system and an optional PV plant.
package building

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"cellsim/internal/agent"
	"cellsim/internal/component"
	"cellsim/internal/heating"
	"cellsim/internal/history"
	"cellsim/internal/model"
)

var (
	ErrInvalidParameter = errors.New("invalid building parameter")
	ErrSlotOccupied     = model.ErrSlotOccupied
	ErrTooManyAgents    = errors.New("building agent capacity reached")
)

const (
	// airHeatCapacity is the volumetric heat capacity of air in Wh/(m³·K).
	airHeatCapacity = 0.3378
	roomTemp        = 20.0
	windowSurface   = 1
)

// Surface is one envelope area with its U-value.
type Surface struct {
	Area float64 `yaml:"area" json:"area"` // m²
	U    float64 `yaml:"u" json:"u"`       // W/(m²·K)
}

// Config describes the building physics. Surfaces[1] is the window area.
type Config struct {
	MaxAgents       int       `yaml:"max_agents"`
	LivingArea      float64   `yaml:"living_area"` // m²
	Surfaces        []Surface `yaml:"surfaces"`
	DeltaU          float64   `yaml:"delta_u"`        // W/(m²·K), thermal bridge surcharge
	NInfiltration   float64   `yaml:"n_infiltration"` // 1/h
	NVentilation    float64   `yaml:"n_ventilation"`  // 1/h
	CpEff           float64   `yaml:"cp_eff"`         // Wh/K
	G               float64   `yaml:"g"`              // window solar factor
	Volume          float64   `yaml:"volume"`         // m³
	AtDHN           bool      `yaml:"at_dhn"`
	NormOutdoorTemp float64   `yaml:"t_out_n"` // °C
}

// Validate reports the first physically invalid field.
func (c Config) Validate() error {
	switch {
	case c.MaxAgents <= 0:
		return fmt.Errorf("%w: max agents %d must be positive", ErrInvalidParameter, c.MaxAgents)
	case c.LivingArea <= 0:
		return fmt.Errorf("%w: living area %.1f m² must be positive", ErrInvalidParameter, c.LivingArea)
	case len(c.Surfaces) <= windowSurface:
		return fmt.Errorf("%w: %d surfaces given, the window area is surface %d", ErrInvalidParameter, len(c.Surfaces), windowSurface)
	case c.DeltaU < 0:
		return fmt.Errorf("%w: U-value offset %.3f must not be negative", ErrInvalidParameter, c.DeltaU)
	case c.NInfiltration < 0 || c.NVentilation < 0:
		return fmt.Errorf("%w: air exchange rates must not be negative", ErrInvalidParameter)
	case c.CpEff <= 0:
		return fmt.Errorf("%w: heat capacity %.1f Wh/K must be positive", ErrInvalidParameter, c.CpEff)
	case c.G < 0 || c.G > 1:
		return fmt.Errorf("%w: solar factor %.2f outside [0, 1]", ErrInvalidParameter, c.G)
	case c.Volume <= 0:
		return fmt.Errorf("%w: volume %.1f m³ must be positive", ErrInvalidParameter, c.Volume)
	}
	for i, s := range c.Surfaces {
		if s.Area < 0 || s.U < 0 {
			return fmt.Errorf("%w: surface %d has negative area or U-value", ErrInvalidParameter, i)
		}
	}
	return nil
}

// resUTrans is the resulting transmission coefficient in W/K: surface
// losses including thermal bridges plus air renewal.
func (c Config) resUTrans() float64 {
	var u float64
	for _, s := range c.Surfaces {
		u += s.Area * (s.U + c.DeltaU)
	}
	return u + c.Volume*airHeatCapacity*(c.NInfiltration+c.NVentilation)
}

// Options carries history length, logger and random source.
type Options struct {
	History int
	Logger  *zap.Logger
	Rand    *rand.Rand
}

// Building aggregates agent demand, envelope response and supply.
type Building struct {
	cfg    Config
	qHLN   float64
	env    envelope
	agents []*agent.Agent

	pv     *component.PV
	system heating.System

	atDHN          bool
	selfSuppliedT  bool
	log            *zap.Logger
	rng            *rand.Rand
	hist           int
	genE, loadE    *history.Buffer
	genT, loadT    *history.Buffer
	temperatureLog *history.Buffer
}

// New validates cfg and computes the norm heating load following the
// simplified whole-building method of DIN EN 12831-1.
func New(cfg Config, opts Options) (*Building, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	u := cfg.resUTrans()
	qHLN := u * (roomTemp - cfg.NormOutdoorTemp)
	b := &Building{
		cfg:  cfg,
		qHLN: qHLN,
		env: envelope{
			resUTrans:   u,
			cpEff:       cfg.CpEff,
			temperature: roomTemp,
			nominal:     roomTemp,
			heatLim:     heatLimitTemp(qHLN, cfg.LivingArea),
			meanOut:     15,
		},
		atDHN:          cfg.AtDHN,
		selfSuppliedT:  !cfg.AtDHN,
		log:            log,
		rng:            opts.Rand,
		hist:           opts.History,
		genE:           history.New(opts.History),
		loadE:          history.New(opts.History),
		genT:           history.New(opts.History),
		loadT:          history.New(opts.History),
		temperatureLog: history.New(opts.History),
	}
	return b, nil
}

func (b *Building) Config() Config                { return b.cfg }
func (b *Building) QHLN() float64                 { return b.qHLN }
func (b *Building) ResUTrans() float64            { return b.env.resUTrans }
func (b *Building) HeatLimitTemp() float64        { return b.env.heatLim }
func (b *Building) Temperature() float64          { return b.env.temperature }
func (b *Building) MeanOutdoorTemp() float64      { return b.env.meanOut }
func (b *Building) AtDHN() bool                   { return b.atDHN }
func (b *Building) SetAtDHN(v bool)               { b.atDHN = v }
func (b *Building) IsSelfSuppliedT() bool         { return b.selfSuppliedT }
func (b *Building) PV() *component.PV             { return b.pv }
func (b *Building) HeatingSystem() heating.System { return b.system }
func (b *Building) NumAgents() int                { return len(b.agents) }
func (b *Building) MaxAgents() int                { return b.cfg.MaxAgents }

// Agents returns the building's agents. The slice is shared.
func (b *Building) Agents() []*agent.Agent { return b.agents }

// AddAgent appends a. Past MaxAgents it logs a warning and returns
// ErrTooManyAgents.
func (b *Building) AddAgent(a *agent.Agent) error {
	if len(b.agents) >= b.cfg.MaxAgents {
		b.log.Warn("agent limit reached, agent not added", zap.Int("max_agents", b.cfg.MaxAgents))
		return ErrTooManyAgents
	}
	b.agents = append(b.agents, a)
	return nil
}

// ReplaceAgent swaps the agent at position i.
func (b *Building) ReplaceAgent(i int, a *agent.Agent) error {
	if i < 0 || i >= len(b.agents) {
		b.log.Warn("agent position out of range", zap.Int("position", i), zap.Int("agents", len(b.agents)))
		return fmt.Errorf("agent %d of %d: %w", i, len(b.agents), model.ErrIndexOutOfRange)
	}
	b.agents[i] = a
	return nil
}

func (b *Building) occupied(slot string) error {
	b.log.Warn("building slot already occupied, nothing added", zap.String("slot", slot))
	return fmt.Errorf("building %s: %w", slot, ErrSlotOccupied)
}

// AddPV installs a PV plant into the empty slot.
func (b *Building) AddPV(pv *component.PV) error {
	if b.pv != nil {
		return b.occupied("pv")
	}
	b.pv = pv
	return nil
}

// AddDimensionedPV sizes a PV plant from the summed consumption and mean
// PV demand share of the current agents, for mean annual global irradiation
// eg in kWh/m².
func (b *Building) AddDimensionedPV(eg float64, hist int) error {
	if b.pv != nil {
		return b.occupied("pv")
	}
	var coc, demand float64
	for _, a := range b.agents {
		coc += a.COC()
		demand += a.DemandAPV()
	}
	if len(b.agents) > 0 {
		demand /= float64(len(b.agents))
	}
	area, err := component.SizeArea(eg, coc, demand, b.rng)
	if err != nil {
		return err
	}
	pv, err := component.NewPV(area, hist)
	if err != nil {
		return fmt.Errorf("dimension building pv: %w", err)
	}
	return b.AddPV(pv)
}

// AddHeatingSystem installs sys. A building holds at most one heating system.
func (b *Building) AddHeatingSystem(sys heating.System) error {
	if b.system != nil {
		return b.occupied("heating system")
	}
	b.system = sys
	b.selfSuppliedT = false
	return nil
}

func (b *Building) heatingOptions() heating.Options {
	return heating.Options{History: b.hist, Logger: b.log, Rand: b.rng}
}

// AddDimensionedCHPSystem sizes a CHP system from the norm heating load and
// the agent capacity.
func (b *Building) AddDimensionedCHPSystem() error {
	if b.system != nil {
		return b.occupied("heating system")
	}
	sys, err := heating.NewCHPSystem(b.qHLN, float64(b.cfg.MaxAgents), b.heatingOptions())
	if err != nil {
		return err
	}
	return b.AddHeatingSystem(sys)
}

// AddDimensionedHeatPumpSystem sizes a heat pump system against the hourly
// reference year refYear.
func (b *Building) AddDimensionedHeatPumpSystem(spf, supplyTemp float64, refYear []float64) error {
	if b.system != nil {
		return b.occupied("heating system")
	}
	sys, err := heating.NewHeatPumpSystem(heating.SizingInput{
		NormHeatingLoad:     b.qHLN,
		SeasonalPerformance: spf,
		SupplyTemp:          supplyTemp,
		ReferenceYear:       refYear,
		HeatLimitTemp:       b.env.heatLim,
		NormOutdoorTemp:     b.cfg.NormOutdoorTemp,
	}, b.heatingOptions())
	if err != nil {
		return err
	}
	return b.AddHeatingSystem(sys)
}

// solarGains spreads the window area evenly over the four orientations.
func (b *Building) solarGains(amb model.Ambient) float64 {
	window := b.cfg.Surfaces[windowSurface].Area
	var gains float64
	for _, g := range amb.SpecificGains {
		gains += g * window / 4
	}
	return gains * b.cfg.G
}

// Step advances the building by one time step. Electrical flows land in
// GenE/LoadE; GenT is always 0 and LoadT carries the district heating load.
func (b *Building) Step(slp model.SLP, hwProfile float64, amb model.Ambient) model.Balance {
	b.env.updateMean(amb.OutdoorTemp)

	var out model.Balance
	var hotWater float64
	for _, a := range b.agents {
		e, hw := a.Step(slp, hwProfile)
		out.LoadE += e
		hotWater += hw
	}
	// electrical consumption ends up as heat inside the building (DIN 4108-6)
	gains := out.LoadE + b.solarGains(amb)

	if b.pv != nil {
		out.GenE += b.pv.Step(amb.GlobalIrradiance())
	}

	request := b.env.request(gains, amb.OutdoorTemp)
	var powE, genT float64
	if b.system != nil {
		powE, genT = b.system.Step(max(0, request-b.system.Losses()), hotWater,
			amb.OutdoorTemp, b.env.heatLim, b.env.meanOut)
	} else {
		powE, genT = heating.NoSystem{}.Step(request, hotWater, 0, 0, 0)
		if b.atDHN {
			out.LoadT = genT
		}
	}
	out.AddElectrical(powE)

	heatLoad := b.env.update(gains+genT-hotWater, amb.OutdoorTemp)

	b.temperatureLog.Save(b.env.temperature)
	b.genE.Save(out.GenE)
	b.loadE.Save(out.LoadE)
	b.genT.Save(genT + gains)
	b.loadT.Save(heatLoad + hotWater)
	return out
}

func (b *Building) GenEHistory() []float64        { return b.genE.Values() }
func (b *Building) LoadEHistory() []float64       { return b.loadE.Values() }
func (b *Building) GenTHistory() []float64        { return b.genT.Values() }
func (b *Building) LoadTHistory() []float64       { return b.loadT.Values() }
func (b *Building) TemperatureHistory() []float64 { return b.temperatureLog.Values() }
