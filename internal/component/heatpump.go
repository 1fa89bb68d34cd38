package component

import (
	"fmt"
	"math"

	"cellsim/internal/history"
)

// DefaultMinLoad is the lowest modulation a running heat pump accepts.
const DefaultMinLoad = 0.2

// HeatPumpConfig describes an installed air-source heat pump.
type HeatPumpConfig struct {
	PowerT         float64 // nominal thermal power, W
	SupplyTemp     float64 // °C
	MinWorkingTemp float64 // lowest outdoor temperature it was designed for, °C
	MinLoad        float64 // 0 means DefaultMinLoad
}

// HeatPump converts a modulation command into electrical consumption and
// thermal output using the COP and Q correlations.
type HeatPump struct {
	config     HeatPumpConfig
	modulation float64

	conE *history.Buffer
	genT *history.Buffer
	cop  *history.Buffer
}

func NewHeatPump(cfg HeatPumpConfig, hist int) (*HeatPump, error) {
	if cfg.MinLoad == 0 {
		cfg.MinLoad = DefaultMinLoad
	}
	if cfg.PowerT <= 0 {
		return nil, fmt.Errorf("%w: heat pump power %.1f W must be positive", ErrInvalidParameter, cfg.PowerT)
	}
	if cfg.MinLoad < 0 || cfg.MinLoad > 1 {
		return nil, fmt.Errorf("%w: heat pump min load %.3f outside [0,1]", ErrInvalidParameter, cfg.MinLoad)
	}
	return &HeatPump{
		config: cfg,
		conE:   history.New(hist),
		genT:   history.New(hist),
		cop:    history.New(hist),
	}, nil
}

func (h *HeatPump) Config() HeatPumpConfig { return h.config }
func (h *HeatPump) Modulation() float64    { return h.modulation }

// Step sets the modulation and returns electrical consumption and thermal
// output in W. A positive modulation is clamped into [MinLoad, 1]; anything
// else switches the heat pump off. Thermal output never exceeds nominal power.
func (h *HeatPump) Step(modulation, tOut float64) (conE, genT float64) {
	if modulation > 0 {
		h.modulation = math.Min(math.Max(modulation, h.config.MinLoad), 1)
	} else {
		h.modulation = 0
	}

	cop := -1.0
	if h.modulation > 0 {
		p := h.config.PowerT
		genT = math.Min(h.modulation*p*Q(p, tOut, h.config.SupplyTemp), p)
		cop = COP(p, tOut, h.config.SupplyTemp)
		conE = genT / cop
	}

	h.conE.Save(conE)
	h.genT.Save(genT)
	h.cop.Save(cop)
	return conE, genT
}

func (h *HeatPump) ConEHistory() []float64 { return h.conE.Values() }
func (h *HeatPump) GenTHistory() []float64 { return h.genT.Values() }

// COPHistory returns the recorded COP trace; -1 marks steps where the heat pump was off.
func (h *HeatPump) COPHistory() []float64 { return h.cop.Values() }
