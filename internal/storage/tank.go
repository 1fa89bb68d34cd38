package storage

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	CWater   = 1.162 // Wh/(kg K)
	RhoWater = 983.2 // kg/m³
)

// TankVolumes are the available standard tank sizes in m³.
var TankVolumes = []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.75, 0.95, 1.5, 2, 3, 5}

// HeatingSystemStorage sizes a buffer tank for a heating system of thermal
// power powT (W) and temperature spread deltaT (K). The specific volume is
// drawn from 50–100 l/kW and matched to the nearest standard tank.
// It returns the capacity in Wh and the tank volume in m³.
func HeatingSystemStorage(powT, deltaT float64, rng *rand.Rand) (capacityWh, volume float64) {
	specific := 75e-3 // m³/kW
	if rng != nil {
		specific = (50 + rng.Float64()*50) * 1e-3
	}
	exact := powT * 1e-3 * specific

	diffs := make([]float64, len(TankVolumes))
	copy(diffs, TankVolumes)
	floats.AddConst(-exact, diffs)
	for i := range diffs {
		diffs[i] = math.Abs(diffs[i])
	}
	volume = TankVolumes[floats.MinIdx(diffs)]
	return volume * CWater * RhoWater * deltaT, volume
}

// LossParameter derives a self-discharge rate (1/h) for a tank of the given
// volume (m³) and capacity (Wh). It assumes a height to radius ratio of 4.5
// and 15 W/m² surface loss at full charge.
func LossParameter(volume, capacityWh float64) float64 {
	radius := math.Cbrt(volume / (math.Pi * 4.5))
	surface := math.Pi * 11 * radius * radius
	return surface * 15 / capacityWh
}

// HotWaterStorage sizes a domestic hot-water tank per DIN 4708 for the
// demand characteristic number n and temperature spread deltaT (K).
// It returns the capacity in Wh.
func HotWaterStorage(n, deltaT float64) float64 {
	// 5820 Wh fills a standard bathtub.
	w2tn := 5820 * n * ((1 + math.Sqrt(n)) / math.Sqrt(n))
	minVolume := w2tn / (deltaT * CWater * RhoWater)
	for _, v := range TankVolumes {
		if minVolume < v {
			return v * CWater * RhoWater * deltaT
		}
	}
	return TankVolumes[len(TankVolumes)-1] * CWater * RhoWater * deltaT
}
