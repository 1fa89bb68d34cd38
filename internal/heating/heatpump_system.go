package heating

import (
	"fmt"

	"go.uber.org/zap"

	"cellsim/internal/component"
	"cellsim/internal/history"
	"cellsim/internal/storage"
)

const hpModeHalfWidth = 2.0 // K

// HeatPumpSystem supplies a building from a heat pump and a bivalent backup
// boiler through one thermal storage.
type HeatPumpSystem struct {
	heatPump   *component.HeatPump
	boiler     *component.Boiler
	storage    *storage.Storage
	design     Design
	season     seasonSwitch
	limits     Thresholds
	modulation float64
	boilerOn   bool
	losses     float64

	conE *history.Buffer
	genT *history.Buffer
}

// NewHeatPumpSystem sizes a heat pump against the reference year and builds
// the system around the resulting design.
func NewHeatPumpSystem(in SizingInput, opts Options) (*HeatPumpSystem, error) {
	d, err := SizeHeatPump(in, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("sizing heat pump: %w", err)
	}
	return newHeatPumpSystem(d, in.SupplyTemp, opts)
}

// NewHeatPumpSystemFromDesign builds a system from an existing design.
func NewHeatPumpSystemFromDesign(d Design, supplyTemp float64, opts Options) (*HeatPumpSystem, error) {
	return newHeatPumpSystem(d, supplyTemp, opts)
}

func newHeatPumpSystem(d Design, supplyTemp float64, opts Options) (*HeatPumpSystem, error) {
	hp, err := component.NewHeatPump(component.HeatPumpConfig{
		PowerT:         d.PowerT,
		SupplyTemp:     supplyTemp,
		MinWorkingTemp: d.MinWorkingTemp,
	}, opts.History)
	if err != nil {
		return nil, fmt.Errorf("creating heat pump: %w", err)
	}
	boiler, err := component.NewBoiler(d.BoilerPowerT, opts.History, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating boiler: %w", err)
	}
	st, err := storage.New(storage.Config{
		CapacityWh:          d.StorageCapacityWh,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		SelfDischarge:       d.StorageSelfLoss,
		MaxPowerW:           d.StorageMaxPowerW,
		History:             opts.History,
	}, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	opts.logger().Info("designed heat pump system",
		zap.Int("iterations", d.Iterations),
		zap.Float64("pow_t_w", d.PowerT),
		zap.Float64("mean_cop", d.MeanCOP),
		zap.Float64("t_min", d.MinWorkingTemp),
		zap.Float64("storage_wh", d.StorageCapacityWh),
		zap.Float64("boiler_pow_t_w", d.BoilerPowerT),
	)

	return &HeatPumpSystem{
		heatPump: hp,
		boiler:   boiler,
		storage:  st,
		design:   d,
		season:   seasonSwitch{mode: Intermediate, halfWidth: hpModeHalfWidth},
		limits:   HeatPumpThresholds,
		conE:     history.New(opts.History),
		genT:     history.New(opts.History),
	}, nil
}

func (s *HeatPumpSystem) Kind() Kind                    { return KindHeatPump }
func (s *HeatPumpSystem) system()                       {}
func (s *HeatPumpSystem) Losses() float64               { return s.losses }
func (s *HeatPumpSystem) Mode() Mode                    { return s.season.mode }
func (s *HeatPumpSystem) Design() Design                { return s.design }
func (s *HeatPumpSystem) Modulation() float64           { return s.modulation }
func (s *HeatPumpSystem) BoilerOn() bool                { return s.boilerOn }
func (s *HeatPumpSystem) HeatPump() *component.HeatPump { return s.heatPump }
func (s *HeatPumpSystem) Boiler() *component.Boiler     { return s.boiler }
func (s *HeatPumpSystem) Storage() *storage.Storage     { return s.storage }

func (s *HeatPumpSystem) control() {
	rc := s.storage.RelativeCharge()
	lim := s.limits

	switch s.season.mode {
	case Winter:
		if rc <= lim.LL {
			s.boilerOn, s.modulation = true, 1
		}
		if rc > lim.L {
			s.boilerOn = false
		} else {
			s.modulation = 1
		}
		if rc >= lim.HH {
			s.modulation = 0
		}

	case Intermediate:
		s.boilerOn = false
		if rc <= lim.LL {
			s.modulation = 1
		} else if rc > lim.H {
			s.modulation = 0
		}

	case Summer:
		s.boilerOn = false
		if rc <= lim.LL {
			s.modulation = component.DefaultMinLoad
		} else if rc > lim.L {
			s.modulation = 0
		}
	}
}

// Step runs one control cycle. The electrical power is negative: the heat
// pump consumes it.
func (s *HeatPumpSystem) Step(heatingDemand, hotWaterDemand, tOut, tHeatLim, tOutMean float64) (powE, powT float64) {
	s.season.update(tHeatLim, tOutMean)
	s.control()

	conE, hpT := s.heatPump.Step(s.modulation, tOut)
	boilerT, _ := s.boiler.Step(s.boilerOn)

	load := heatingDemand + hotWaterDemand
	supply := hpT + boilerT
	diff, loss := s.storage.Step(supply - load)
	s.losses = loss

	s.conE.Save(conE)
	s.genT.Save(supply)
	return -conE, load + diff + loss
}

func (s *HeatPumpSystem) ConEHistory() []float64 { return s.conE.Values() }
func (s *HeatPumpSystem) GenTHistory() []float64 { return s.genT.Values() }
