package heating

import (
	"fmt"

	"go.uber.org/zap"

	"cellsim/internal/component"
	"cellsim/internal/history"
	"cellsim/internal/model"
	"cellsim/internal/storage"
)

// Dispatch is the on/off command for the sources of a cell thermal system.
type Dispatch struct {
	CHP    bool
	Boiler bool
}

// Controller decides the dispatch of a cell thermal system from the relative
// charge of its storage, the cell state of the previous step and the current
// ambient sample.
type Controller interface {
	Dispatch(relCharge float64, current Dispatch, cell model.CellState, amb model.Ambient) Dispatch
}

// ControllerFunc adapts a function to the Controller interface.
type ControllerFunc func(relCharge float64, current Dispatch, cell model.CellState, amb model.Ambient) Dispatch

func (f ControllerFunc) Dispatch(relCharge float64, current Dispatch, cell model.CellState, amb model.Ambient) Dispatch {
	return f(relCharge, current, cell, amb)
}

// ThresholdController is the default hysteresis dispatch on storage levels.
type ThresholdController struct {
	Limits Thresholds
}

func (c ThresholdController) Dispatch(rc float64, d Dispatch, _ model.CellState, _ model.Ambient) Dispatch {
	lim := c.Limits
	switch {
	case rc <= lim.LL:
		return Dispatch{CHP: true, Boiler: true}
	case rc <= lim.L && !d.CHP:
		return Dispatch{CHP: true}
	case rc >= lim.H && d.Boiler:
		return Dispatch{CHP: true}
	case rc >= lim.HH:
		return Dispatch{}
	}
	return d
}

// CellSystemConfig describes a district heating plant of a cell.
type CellSystemConfig struct {
	PowerT              float64 `yaml:"pow_t"`     // W, CHP plus boiler
	CHPShare            float64 `yaml:"chp_share"` // 0..1 of PowerT
	StorageCapacityWh   float64 `yaml:"storage_capacity_wh"`
	StorageSelfLoss     float64 `yaml:"storage_self_loss"` // 1/h
	ChargeEfficiency    float64 `yaml:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency"`
}

// CellCHPSystem supplies a district heating network from a CHP unit, a peak
// boiler and one storage. The dispatch comes from a Controller.
type CellCHPSystem struct {
	chp        *component.CHP
	boiler     *component.Boiler
	storage    *storage.Storage
	controller Controller
	dispatch   Dispatch
	losses     float64

	genE *history.Buffer
	genT *history.Buffer
	loss *history.Buffer
}

// NewCellCHPSystem builds the plant. A nil controller selects
// ThresholdController with CHPThresholds.
func NewCellCHPSystem(cfg CellSystemConfig, ctrl Controller, opts Options) (*CellCHPSystem, error) {
	if cfg.PowerT <= 0 {
		return nil, fmt.Errorf("%w: cell system power %.1f W must be positive", ErrInvalidParameter, cfg.PowerT)
	}
	if cfg.CHPShare < 0 || cfg.CHPShare > 1 {
		return nil, fmt.Errorf("%w: chp share %.3f outside [0,1]", ErrInvalidParameter, cfg.CHPShare)
	}
	if ctrl == nil {
		ctrl = ThresholdController{Limits: CHPThresholds}
	}

	chp, err := component.NewCHP(cfg.CHPShare*cfg.PowerT, opts.History)
	if err != nil {
		return nil, fmt.Errorf("creating chp: %w", err)
	}
	boiler, err := component.NewBoiler((1-cfg.CHPShare)*cfg.PowerT, opts.History, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating boiler: %w", err)
	}
	st, err := storage.New(storage.Config{
		CapacityWh:          cfg.StorageCapacityWh,
		ChargeEfficiency:    cfg.ChargeEfficiency,
		DischargeEfficiency: cfg.DischargeEfficiency,
		SelfDischarge:       cfg.StorageSelfLoss,
		MaxPowerW:           cfg.PowerT,
		History:             opts.History,
	}, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	opts.logger().Info("designed cell chp system",
		zap.Float64("chp_pow_t_w", chp.PowerT()),
		zap.Float64("boiler_pow_t_w", boiler.PowerT()),
		zap.Float64("storage_wh", cfg.StorageCapacityWh),
	)

	return &CellCHPSystem{
		chp:        chp,
		boiler:     boiler,
		storage:    st,
		controller: ctrl,
		genE:       history.New(opts.History),
		genT:       history.New(opts.History),
		loss:       history.New(opts.History),
	}, nil
}

func (s *CellCHPSystem) Dispatch() Dispatch        { return s.dispatch }
func (s *CellCHPSystem) Storage() *storage.Storage { return s.storage }
func (s *CellCHPSystem) CHP() *component.CHP       { return s.chp }
func (s *CellCHPSystem) Boiler() *component.Boiler { return s.boiler }

// Losses returns the storage losses of the last step in W.
func (s *CellCHPSystem) Losses() float64 { return s.losses }

// Step serves the thermal demand of the network (W). It returns the
// electrical power, the thermal power delivered to the network and the fuel
// power used.
func (s *CellCHPSystem) Step(demand float64, cell model.CellState, amb model.Ambient) (powE, powT, fuel float64) {
	s.dispatch = s.controller.Dispatch(s.storage.RelativeCharge(), s.dispatch, cell, amb)

	powE, chpT, chpFuel := s.chp.Step(s.dispatch.CHP)
	boilerT, boilerFuel := s.boiler.Step(s.dispatch.Boiler)
	supply := chpT + boilerT

	diff, loss := s.storage.Step(supply - demand)
	s.losses = loss

	s.genE.Save(powE)
	s.genT.Save(supply)
	s.loss.Save(loss)
	return powE, demand + diff, chpFuel + boilerFuel
}

func (s *CellCHPSystem) GenEHistory() []float64 { return s.genE.Values() }
func (s *CellCHPSystem) GenTHistory() []float64 { return s.genT.Values() }
func (s *CellCHPSystem) LossHistory() []float64 { return s.loss.Values() }
