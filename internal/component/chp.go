package component

import (
	"fmt"

	"cellsim/internal/history"
)

const (
	DefaultPowerToHeat        = 0.5
	DefaultCHPTotalEfficiency = 0.9
)

// CHP is a combined heat and power unit that runs at nominal power or not at all.
type CHP struct {
	powT float64
	powE float64
	eff  float64
	on   bool

	genE *history.Buffer
	genT *history.Buffer
	fuel *history.Buffer
}

// NewCHP creates a unit of thermal rating powT (W). Electrical output is
// DefaultPowerToHeat of the thermal rating.
func NewCHP(powT float64, hist int) (*CHP, error) {
	return NewCHPWithRatio(powT, DefaultPowerToHeat, DefaultCHPTotalEfficiency, hist)
}

// NewCHPWithRatio creates a unit with an explicit power-to-heat ratio and
// total (electrical plus thermal) fuel efficiency.
func NewCHPWithRatio(powT, powerToHeat, totalEff float64, hist int) (*CHP, error) {
	if powT < 0 {
		return nil, fmt.Errorf("%w: chp thermal power %.1f W must not be negative", ErrInvalidParameter, powT)
	}
	if powerToHeat < 0 || powerToHeat > 1 {
		return nil, fmt.Errorf("%w: chp power to heat ratio %.3f outside [0,1]", ErrInvalidParameter, powerToHeat)
	}
	if totalEff <= 0 || totalEff > 1 {
		return nil, fmt.Errorf("%w: chp total efficiency %.3f outside (0,1]", ErrInvalidParameter, totalEff)
	}
	return &CHP{
		powT: powT,
		powE: powerToHeat * powT,
		eff:  totalEff,
		genE: history.New(hist),
		genT: history.New(hist),
		fuel: history.New(hist),
	}, nil
}

func (c *CHP) PowerT() float64 { return c.powT }
func (c *CHP) PowerE() float64 { return c.powE }
func (c *CHP) On() bool        { return c.on }

// Step switches the unit and returns electrical, thermal and fuel power in W.
func (c *CHP) Step(on bool) (powE, powT, fuel float64) {
	c.on = on
	if on {
		powE, powT = c.powE, c.powT
		fuel = (powE + powT) / c.eff
	}
	c.genE.Save(powE)
	c.genT.Save(powT)
	c.fuel.Save(fuel)
	return powE, powT, fuel
}

func (c *CHP) GenEHistory() []float64 { return c.genE.Values() }
func (c *CHP) GenTHistory() []float64 { return c.genT.Values() }
func (c *CHP) FuelHistory() []float64 { return c.fuel.Values() }
