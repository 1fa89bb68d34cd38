package weather

import (
	"math"
	"time"

	"cellsim/internal/model"
)

// slpMean is the mean of a profile normalised to 1 MWh per year, in W.
const slpMean = 1e6 / hoursPerYear

func bump(hour, center, width float64) float64 {
	d := hour - center
	return math.Exp(-d * d / (2 * width * width))
}

// SLP returns synthetic standard load profiles at t, in W per MWh of annual
// consumption. Households peak in the morning and evening, agricultural
// businesses follow daylight and common businesses office hours on weekdays.
func SLP(t time.Time) model.SLP {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	winter := 1 + 0.15*math.Cos(2*math.Pi*float64(t.YearDay()-15)/365)
	weekday := t.Weekday() != time.Saturday && t.Weekday() != time.Sunday

	phh := 0.45 + 0.9*bump(hour, 7.5, 1.5) + 1.6*bump(hour, 19, 2.5)
	bsla := 0.5 + 1.1*bump(hour, 12, 4)
	bslc := 0.35
	if weekday {
		bslc += 2.2 * bump(hour, 12.5, 3)
	}
	return model.SLP{
		phh * winter * slpMean / 0.994,
		bsla * winter * slpMean / 0.958,
		bslc * winter * slpMean / 0.841,
	}
}

// HotWaterFactor returns the hot water day profile factor at t, about 1 on
// average with morning and evening draws.
func HotWaterFactor(t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	return (0.25 + 2.2*bump(hour, 7, 1.2) + 1.8*bump(hour, 20, 1.8)) / 0.856
}

// Samples returns steps consecutive drive samples of model.TimeStep from start.
func (g *Generator) Samples(start time.Time, steps int) []model.Sample {
	step := time.Duration(model.TimeStep * float64(time.Hour))
	out := make([]model.Sample, steps)
	for i := range out {
		t := start.Add(time.Duration(i) * step)
		out[i] = model.Sample{
			Timestamp: t,
			Ambient:   g.Ambient(t),
			SLP:       SLP(t),
			HotWater:  HotWaterFactor(t),
		}
	}
	return out
}
