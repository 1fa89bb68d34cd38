package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"cellsim/internal/model"
)

func TestGenerator_Deterministic(t *testing.T) {
	at := time.Date(2023, 3, 14, 10, 15, 0, 0, time.UTC)
	a := New(DefaultConfig()).Ambient(at)
	b := New(DefaultConfig()).Ambient(at)
	assert.Equal(t, a, b)

	cfg := DefaultConfig()
	cfg.Seed = 99
	c := New(cfg).Ambient(at)
	assert.NotEqual(t, a.OutdoorTemp, c.OutdoorTemp)
}

func TestSolarPosition_EquinoxNoon(t *testing.T) {
	// day 80 is close to the March equinox
	noon := time.Date(2023, 3, 21, 12, 0, 0, 0, time.UTC)
	elevation, azimuth := SolarPosition(51, noon)
	assert.InDelta(t, 39, elevation, 1.5)
	assert.InDelta(t, 0, azimuth, 1e-9)

	afternoon := time.Date(2023, 3, 21, 15, 0, 0, 0, time.UTC)
	_, azimuth = SolarPosition(51, afternoon)
	assert.Greater(t, azimuth, 0.0)

	midnight := time.Date(2023, 3, 21, 0, 0, 0, 0, time.UTC)
	elevation, _ = SolarPosition(51, midnight)
	assert.Less(t, elevation, 0.0)
}

func TestAmbient_NightHasNoIrradiance(t *testing.T) {
	g := New(DefaultConfig())
	amb := g.Ambient(time.Date(2023, 12, 1, 1, 0, 0, 0, time.UTC))
	assert.Zero(t, amb.DirectIrradiance)
	assert.Zero(t, amb.DiffuseIrradiance)

	day := g.Ambient(time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC))
	assert.Greater(t, day.GlobalIrradiance(), 0.0)
	assert.GreaterOrEqual(t, day.DirectIrradiance, 0.0)
	assert.GreaterOrEqual(t, day.WindSpeed, 0.0)
}

func TestDailyMeanTemperature(t *testing.T) {
	g := New(DefaultConfig())
	day := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	var sum float64
	for h := 0; h < 24; h++ {
		sum += g.Temperature(day.Add(time.Duration(h) * time.Hour))
	}
	assert.InDelta(t, sum/24, g.DailyMeanTemperature(day.Add(17*time.Hour)), 1e-9)
}

func TestReferenceYear_Seasons(t *testing.T) {
	year := New(DefaultConfig()).ReferenceYear(2023)
	require.Len(t, year, hoursPerYear)

	january := floats.Sum(year[:31*24]) / (31 * 24)
	july := floats.Sum(year[181*24:212*24]) / (31 * 24)
	assert.Less(t, january, july)
	assert.Less(t, floats.Min(year), 5.0)
}

func TestSLP_MeanNearOneMWh(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var sum model.SLP
	for ts := start; ts.Year() == 2023; ts = ts.Add(time.Hour) {
		s := SLP(ts)
		for i := range sum {
			sum[i] += s[i]
		}
	}
	for i := range sum {
		// annual energy within 25 % of 1 MWh
		assert.InDelta(t, 1e6, sum[i], 0.25e6, "profile %s", model.AgentType(i))
	}
}

func TestSamples(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := New(DefaultConfig()).Samples(start, 8)
	require.Len(t, samples, 8)
	assert.Equal(t, start.Add(time.Hour+45*time.Minute), samples[7].Timestamp)
	for _, s := range samples {
		assert.Greater(t, s.HotWater, 0.0)
		assert.Greater(t, s.SLP[model.PHH], 0.0)
	}
}
