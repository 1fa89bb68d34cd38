package component

import (
	"fmt"
	"math/rand/v2"

	"cellsim/internal/history"
)

// SizeArea returns the effective collector area (m²) that covers the share
// demand of an annual consumption coc (MWh) at mean annual global irradiation
// eg (kWh/m²). A ±20 % spread is drawn with rng when it is not nil.
func SizeArea(eg, coc, demand float64, rng *rand.Rand) (float64, error) {
	if eg <= 0 {
		return 0, fmt.Errorf("%w: annual irradiation %.1f kWh/m² must be positive", ErrInvalidParameter, eg)
	}
	if coc < 0 || demand < 0 {
		return 0, fmt.Errorf("%w: consumption %.3f and demand share %.3f must not be negative", ErrInvalidParameter, coc, demand)
	}
	spread := 1.0
	if rng != nil {
		spread = 0.8 + rng.Float64()*0.4
	}
	return spread * coc * 1e3 / eg * demand, nil
}

// PV is a photovoltaic plant with an effective area.
type PV struct {
	area float64
	genE *history.Buffer
}

func NewPV(area float64, hist int) (*PV, error) {
	if area <= 0 {
		return nil, fmt.Errorf("%w: pv area %.2f m² must be positive", ErrInvalidParameter, area)
	}
	return &PV{area: area, genE: history.New(hist)}, nil
}

func (p *PV) Area() float64 { return p.area }

// Step returns the electrical output for global irradiance eg (W/m²).
func (p *PV) Step(eg float64) float64 {
	pow := p.area * eg
	p.genE.Save(pow)
	return pow
}

func (p *PV) GenEHistory() []float64 { return p.genE.Values() }

// SolarThermal is a solar thermal collector field with an effective area.
type SolarThermal struct {
	area float64
	genT *history.Buffer
}

func NewSolarThermal(area float64, hist int) (*SolarThermal, error) {
	if area <= 0 {
		return nil, fmt.Errorf("%w: collector area %.2f m² must be positive", ErrInvalidParameter, area)
	}
	return &SolarThermal{area: area, genT: history.New(hist)}, nil
}

func (s *SolarThermal) Area() float64 { return s.area }

// Step returns the thermal output for global irradiance eg (W/m²).
func (s *SolarThermal) Step(eg float64) float64 {
	pow := s.area * eg
	s.genT.Save(pow)
	return pow
}

func (s *SolarThermal) GenTHistory() []float64 { return s.genT.Values() }
