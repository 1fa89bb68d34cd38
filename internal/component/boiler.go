package component

import (
	"fmt"
	"math/rand/v2"

	"cellsim/internal/history"
)

// Boiler is an on/off fuel-fired heat source.
type Boiler struct {
	powT float64
	eff  float64
	on   bool

	genT *history.Buffer
	fuel *history.Buffer
}

// NewBoiler creates a boiler of thermal power powT (W). The efficiency is
// drawn from [0.8, 0.9] with rng, or set to 0.85 when rng is nil.
func NewBoiler(powT float64, hist int, rng *rand.Rand) (*Boiler, error) {
	if powT < 0 {
		return nil, fmt.Errorf("%w: boiler power %.1f W must not be negative", ErrInvalidParameter, powT)
	}
	eff := 0.85
	if rng != nil {
		eff = 0.8 + rng.Float64()*0.1
	}
	return &Boiler{
		powT: powT,
		eff:  eff,
		genT: history.New(hist),
		fuel: history.New(hist),
	}, nil
}

func (b *Boiler) PowerT() float64     { return b.powT }
func (b *Boiler) Efficiency() float64 { return b.eff }
func (b *Boiler) On() bool            { return b.on }

// SetEfficiency overrides the drawn efficiency.
func (b *Boiler) SetEfficiency(eff float64) error {
	if eff <= 0 || eff > 1 {
		return fmt.Errorf("%w: boiler efficiency %.3f outside (0,1]", ErrInvalidParameter, eff)
	}
	b.eff = eff
	return nil
}

// Fuel returns the fuel power needed to deliver thermal power powT.
func (b *Boiler) Fuel(powT float64) float64 {
	return powT / b.eff
}

// Step switches the boiler and returns thermal and fuel power in W.
func (b *Boiler) Step(on bool) (powT, fuel float64) {
	b.on = on
	if on {
		powT = b.powT
		fuel = b.Fuel(powT)
	}
	b.genT.Save(powT)
	b.fuel.Save(fuel)
	return powT, fuel
}

func (b *Boiler) GenTHistory() []float64 { return b.genT.Values() }
func (b *Boiler) FuelHistory() []float64 { return b.fuel.Values() }
