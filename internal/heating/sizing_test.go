package heating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceYear is a smooth year between -7 °C in January and 24 °C in July
// with a ±3 K daily swing.
func referenceYear() []float64 {
	temps := make([]float64, HoursPerYear)
	for h := range temps {
		day := float64(h) / 24
		seasonal := 8.5 - 12.5*math.Cos(2*math.Pi*(day-15)/365)
		diurnal := 3 * math.Sin(2*math.Pi*(float64(h%24)-9)/24)
		temps[h] = seasonal + diurnal
	}
	return temps
}

func sizingInput(qHLN, spf float64) SizingInput {
	return SizingInput{
		NormHeatingLoad:     qHLN,
		SeasonalPerformance: spf,
		SupplyTemp:          35,
		ReferenceYear:       referenceYear(),
		HeatLimitTemp:       15,
		NormOutdoorTemp:     -12,
	}
}

func TestSizeHeatPump_ReachableOnFirstIteration(t *testing.T) {
	d, err := SizeHeatPump(sizingInput(10000, 3.5), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Iterations)
	assert.InDelta(t, -7, d.MinWorkingTemp, 1e-3)
	assert.GreaterOrEqual(t, d.MeanCOP, 3.5)
	assert.InDelta(t, 10000, d.BoilerPowerT, 1e-9)
	assert.Greater(t, d.PowerT, MinHeatPumpPower)
}

func TestSizeHeatPump_RaisesMinimumWorkingTemperature(t *testing.T) {
	in := sizingInput(10000, 4.5)
	d, err := SizeHeatPump(in, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, d.MeanCOP, 4.5)
	assert.Greater(t, d.Iterations, 1)
	assert.LessOrEqual(t, d.Iterations, int(in.HeatLimitTemp-(-7))+1)
	assert.InDelta(t, -7+float64(d.Iterations-1), d.MinWorkingTemp, 1e-3)
	assert.Less(t, d.MinWorkingTemp, in.HeatLimitTemp)

	// a stricter target never yields a colder working limit
	looser, err := SizeHeatPump(sizingInput(10000, 3.5), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d.MinWorkingTemp, looser.MinWorkingTemp)
}

func TestSizeHeatPump_StorageSizing(t *testing.T) {
	d, err := SizeHeatPump(sizingInput(10000, 3.5), nil)
	require.NoError(t, err)

	assert.Greater(t, d.StorageCapacityWh, 0.0)
	assert.Greater(t, d.StorageSelfLoss, 0.0)
	assert.Greater(t, d.StorageMaxPowerW, d.BoilerPowerT)
}

func TestSizeHeatPump_UnreachableTarget(t *testing.T) {
	_, err := SizeHeatPump(sizingInput(100000, 10), nil)
	assert.ErrorIs(t, err, ErrUnsatisfiableTarget)
}

func TestSizeHeatPump_PowerBelowFloor(t *testing.T) {
	_, err := SizeHeatPump(sizingInput(1500, 4.5), nil)
	assert.ErrorIs(t, err, ErrPowerTooLow)
}

func TestSizeHeatPump_NoHeatingHoursLeft(t *testing.T) {
	in := sizingInput(10000, 4.5)
	in.ReferenceYear = make([]float64, HoursPerYear)
	for i := range in.ReferenceYear {
		in.ReferenceYear[i] = -5
	}

	_, err := SizeHeatPump(in, nil)
	assert.ErrorIs(t, err, ErrUnsatisfiableTarget)
}

func TestSizeHeatPump_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SizingInput)
	}{
		{"short reference year", func(in *SizingInput) { in.ReferenceYear = in.ReferenceYear[:100] }},
		{"zero heating load", func(in *SizingInput) { in.NormHeatingLoad = 0 }},
		{"zero target", func(in *SizingInput) { in.SeasonalPerformance = 0 }},
		{"heat limit below norm temperature", func(in *SizingInput) { in.HeatLimitTemp = -15 }},
		{"nan target", func(in *SizingInput) { in.SeasonalPerformance = math.NaN() }},
		{"infinite target", func(in *SizingInput) { in.SeasonalPerformance = math.Inf(1) }},
		{"nan heating load", func(in *SizingInput) { in.NormHeatingLoad = math.NaN() }},
		{"infinite supply temperature", func(in *SizingInput) { in.SupplyTemp = math.Inf(1) }},
		{"nan heat limit", func(in *SizingInput) { in.HeatLimitTemp = math.NaN() }},
		{"nan in reference year", func(in *SizingInput) {
			year := append([]float64(nil), in.ReferenceYear...)
			year[42] = math.NaN()
			in.ReferenceYear = year
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sizingInput(10000, 3.5)
			tt.modify(&in)
			_, err := SizeHeatPump(in, nil)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}
