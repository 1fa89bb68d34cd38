package agent

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"cellsim/internal/component"
	"cellsim/internal/history"
	"cellsim/internal/model"
)

// SepBSLAgent is a business connected directly to a cell rather than
// through a building. It may own a PV plant.
type SepBSLAgent struct {
	typ       model.AgentType
	coc       float64
	demandAPV float64
	pv        *component.PV
	rng       *rand.Rand
	log       *zap.Logger

	genE  *history.Buffer
	loadE *history.Buffer
}

// NewSepBSL samples a standalone business agent. Households are rejected.
func NewSepBSL(t model.AgentType, hist int, rng *rand.Rand) (*SepBSLAgent, error) {
	if t != model.BSLa && t != model.BSLc {
		return nil, fmt.Errorf("%w: standalone agents must be businesses, got %s", ErrInvalidType, t)
	}
	rng = defaultRand(rng)
	return &SepBSLAgent{
		typ:       t,
		demandAPV: sampleAPVDemand(t, rng),
		coc:       sampleCOC(t, rng),
		rng:       rng,
		log:       zap.NewNop(),
		genE:      history.New(hist),
		loadE:     history.New(hist),
	}, nil
}

func (a *SepBSLAgent) Type() model.AgentType { return a.typ }
func (a *SepBSLAgent) COC() float64          { return a.coc }
func (a *SepBSLAgent) DemandAPV() float64    { return a.demandAPV }
func (a *SepBSLAgent) PV() *component.PV     { return a.pv }

// SetLogger replaces the no-op logger. A nil logger is ignored.
func (a *SepBSLAgent) SetLogger(log *zap.Logger) {
	if log != nil {
		a.log = log
	}
}

func (a *SepBSLAgent) pvOccupied() error {
	a.log.Warn("agent slot already occupied, nothing added",
		zap.String("slot", "pv"), zap.Stringer("agent_type", a.typ))
	return fmt.Errorf("standalone agent pv: %w", model.ErrSlotOccupied)
}

// AddPV installs pv. It fails with model.ErrSlotOccupied if a plant exists.
func (a *SepBSLAgent) AddPV(pv *component.PV) error {
	if a.pv != nil {
		return a.pvOccupied()
	}
	a.pv = pv
	return nil
}

// AddDimensionedPV sizes a PV plant from the agent's consumption for mean
// annual irradiation eg (kWh/m²) and installs it.
func (a *SepBSLAgent) AddDimensionedPV(eg float64, hist int) error {
	if a.pv != nil {
		return a.pvOccupied()
	}
	area, err := component.SizeArea(eg, a.coc, a.demandAPV, a.rng)
	if err != nil {
		return err
	}
	pv, err := component.NewPV(area, hist)
	if err != nil {
		return err
	}
	a.pv = pv
	return nil
}

// Step returns electrical generation and load in W for the profile slp and
// global irradiance eg (W/m²).
func (a *SepBSLAgent) Step(slp model.SLP, eg float64) (gen, load float64) {
	load = a.coc * slp.For(a.typ) * spread(a.rng)
	if a.pv != nil {
		gen = a.pv.Step(eg)
	}
	a.genE.Save(gen)
	a.loadE.Save(load)
	return gen, load
}

func (a *SepBSLAgent) GenEHistory() []float64  { return a.genE.Values() }
func (a *SepBSLAgent) LoadEHistory() []float64 { return a.loadE.Values() }
