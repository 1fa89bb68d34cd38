package storage

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeatingSystemStorage_NearestTank(t *testing.T) {
	capWh, volume := HeatingSystemStorage(10000, 40, nil)

	assert.InDelta(t, 0.75, volume, 1e-12)
	assert.InDelta(t, 34274.352, capWh, 1e-3)
}

func TestHeatingSystemStorage_RandomSpecificVolume(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		_, volume := HeatingSystemStorage(12000, 40, rng)
		// 12 kW at 50–100 l/kW is 0.6–1.2 m³
		assert.Contains(t, []float64{0.6, 0.75, 0.95, 1.5}, volume)
	}
}

func TestHeatingSystemStorage_LargeSystemUsesBiggestTank(t *testing.T) {
	_, volume := HeatingSystemStorage(1e6, 40, nil)
	assert.InDelta(t, 5, volume, 1e-12)
}

func TestLossParameter(t *testing.T) {
	assert.InDelta(t, 0.0021353, LossParameter(0.75, 34274.352), 1e-6)
}

func TestHotWaterStorage(t *testing.T) {
	assert.InDelta(t, 17137.176, HotWaterStorage(1, 50), 1e-3)
	// huge demand falls back to the largest tank
	assert.InDelta(t, 5*CWater*RhoWater*50, HotWaterStorage(1000, 50), 1e-6)
}
