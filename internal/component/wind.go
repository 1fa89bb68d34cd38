package component

import (
	"fmt"
	"math"

	"cellsim/internal/history"
)

const (
	airDensity      = 1.2 // kg/m³
	roughnessLength = 0.1 // m, farmland with scattered hedges
	referenceHeight = 10  // m, height of measured wind speed
)

// WindConfig describes a wind turbine.
type WindConfig struct {
	HubHeight  float64 `yaml:"hub_height"` // m
	Radius     float64 `yaml:"radius"`     // m
	CutIn      float64 `yaml:"cut_in"`     // m/s
	Rated      float64 `yaml:"rated"`      // m/s
	CutOut     float64 `yaml:"cut_out"`    // m/s
	Efficiency float64 `yaml:"efficiency"`
}

// Wind is a turbine with a cubic power curve capped at rated wind speed.
type Wind struct {
	config WindConfig
	area   float64
	genE   *history.Buffer
}

func NewWind(cfg WindConfig, hist int) (*Wind, error) {
	switch {
	case cfg.HubHeight <= roughnessLength:
		return nil, fmt.Errorf("%w: hub height %.1f m too low", ErrInvalidParameter, cfg.HubHeight)
	case cfg.Radius <= 0:
		return nil, fmt.Errorf("%w: rotor radius %.1f m must be positive", ErrInvalidParameter, cfg.Radius)
	case cfg.Efficiency < 0 || cfg.Efficiency > 1:
		return nil, fmt.Errorf("%w: turbine efficiency %.3f outside [0,1]", ErrInvalidParameter, cfg.Efficiency)
	case cfg.CutIn < 0 || cfg.CutIn > cfg.Rated || cfg.Rated > cfg.CutOut:
		return nil, fmt.Errorf("%w: wind speeds must satisfy 0 ≤ cut-in ≤ rated ≤ cut-out", ErrInvalidParameter)
	}
	return &Wind{
		config: cfg,
		area:   math.Pi / 2 * cfg.Radius * cfg.Radius,
		genE:   history.New(hist),
	}, nil
}

// HubWindSpeed scales a 10 m wind speed to hub height with the log profile.
func (w *Wind) HubWindSpeed(ws float64) float64 {
	return ws * math.Log(w.config.HubHeight/roughnessLength) / math.Log(referenceHeight/roughnessLength)
}

// Step returns the electrical output for a wind speed ws (m/s) measured at 10 m.
func (w *Wind) Step(ws float64) float64 {
	v := w.HubWindSpeed(ws)
	var pow float64
	if v >= w.config.CutIn && v <= w.config.CutOut {
		v = math.Min(v, w.config.Rated)
		pow = w.area * airDensity * v * v * v * w.config.Efficiency
	}
	w.genE.Save(pow)
	return pow
}

func (w *Wind) GenEHistory() []float64 { return w.genE.Values() }
