package heating

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cellsim/internal/component"
	"cellsim/internal/storage"
)

const (
	// HoursPerYear is the length of a reference-year temperature series.
	HoursPerYear = 8760
	// MinHeatPumpPower is the smallest heat pump the sizing accepts, W.
	MinHeatPumpPower = 1000.0

	// The grid operator may block heat pumps for 6 h a day.
	blackoutFactor = 24.0 / (24.0 - 6.0)
	roomTemp       = 20.0
)

// SizingInput describes the building a heat pump is sized for.
type SizingInput struct {
	NormHeatingLoad     float64   // W
	SeasonalPerformance float64   // required mean COP over heating hours
	SupplyTemp          float64   // °C
	ReferenceYear       []float64 // hourly outdoor temperature, HoursPerYear values
	HeatLimitTemp       float64   // °C
	NormOutdoorTemp     float64   // °C
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (in SizingInput) validate() error {
	switch {
	case !finite(in.NormHeatingLoad, in.SeasonalPerformance, in.SupplyTemp, in.HeatLimitTemp, in.NormOutdoorTemp):
		return fmt.Errorf("%w: sizing input must be finite: %+v", ErrInvalidParameter, in.withoutReferenceYear())
	case in.NormHeatingLoad <= 0:
		return fmt.Errorf("%w: norm heating load %.1f W must be positive", ErrInvalidParameter, in.NormHeatingLoad)
	case in.SeasonalPerformance <= 0:
		return fmt.Errorf("%w: seasonal performance factor %.2f must be positive", ErrInvalidParameter, in.SeasonalPerformance)
	case len(in.ReferenceYear) != HoursPerYear:
		return fmt.Errorf("%w: reference year has %d hours, want %d", ErrInvalidParameter, len(in.ReferenceYear), HoursPerYear)
	case !finite(in.ReferenceYear...):
		return fmt.Errorf("%w: reference year contains non-finite temperatures", ErrInvalidParameter)
	case in.HeatLimitTemp <= in.NormOutdoorTemp:
		return fmt.Errorf("%w: heat limit %.1f °C must be above norm outdoor temperature %.1f °C",
			ErrInvalidParameter, in.HeatLimitTemp, in.NormOutdoorTemp)
	}
	return nil
}

func (in SizingInput) withoutReferenceYear() SizingInput {
	in.ReferenceYear = nil
	return in
}

// Design is the result of sizing a heat pump system.
type Design struct {
	PowerT            float64 `json:"pow_t_w"`
	MinWorkingTemp    float64 `json:"t_min"`
	MeanCOP           float64 `json:"mean_cop"`
	Iterations        int     `json:"iterations"`
	BoilerPowerT      float64 `json:"boiler_pow_t_w"`
	StorageCapacityWh float64 `json:"storage_capacity_wh"`
	StorageVolume     float64 `json:"storage_volume_m3"`
	StorageSelfLoss   float64 `json:"storage_self_loss"`
	StorageMaxPowerW  float64 `json:"storage_max_power_w"`
}

// SizeHeatPump finds the installed heat pump power and the lowest outdoor
// working temperature at which the mean COP over the remaining heating hours
// of the reference year meets the required seasonal performance factor.
//
// The minimum working temperature starts at the coldest reference hour and
// rises by 1 K per iteration, so the search ends after at most
// HeatLimitTemp - min(ReferenceYear) + 1 iterations.
func SizeHeatPump(in SizingInput, rng *rand.Rand) (Design, error) {
	if err := in.validate(); err != nil {
		return Design{}, err
	}
	qHLN, tSupply := in.NormHeatingLoad, in.SupplyTemp

	powT := qHLN * blackoutFactor / component.COP(qHLN, in.NormOutdoorTemp, tSupply)

	// heating line through (t_heat_lim, 0) and (t_out_n, q_hln)
	intercept := in.HeatLimitTemp / (in.HeatLimitTemp - in.NormOutdoorTemp) * qHLN
	slope := qHLN / (in.NormOutdoorTemp - in.HeatLimitTemp)

	hours := make([]float64, 0, len(in.ReferenceYear))
	for _, t := range in.ReferenceYear {
		if t < in.HeatLimitTemp {
			hours = append(hours, t)
		}
	}

	tMin := floats.Min(in.ReferenceYear)
	meanCOP := -1.0
	iter := 0
	for meanCOP < in.SeasonalPerformance {
		if iter > 0 {
			tMin++
		}
		if tMin >= in.HeatLimitTemp {
			return Design{}, fmt.Errorf("%w: minimum working temperature reached heat limit %.1f °C after %d iterations (mean COP %.2f)",
				ErrUnsatisfiableTarget, in.HeatLimitTemp, iter, meanCOP)
		}

		kept := hours[:0]
		for _, t := range hours {
			if t >= tMin {
				kept = append(kept, t)
			}
		}
		hours = kept

		powT = (slope*tMin + intercept) / component.Q(powT, tMin, tSupply)
		if powT < MinHeatPumpPower {
			return Design{}, fmt.Errorf("%w: %.1f W at %.1f °C", ErrPowerTooLow, powT, tMin)
		}
		if len(hours) == 0 {
			return Design{}, fmt.Errorf("%w: no heating hours left above %.1f °C", ErrUnsatisfiableTarget, tMin)
		}

		cops := make([]float64, len(hours))
		for i, t := range hours {
			cops[i] = component.COP(powT, t, tSupply)
		}
		// every hour weighs the same
		meanCOP = stat.Mean(cops, nil)
		iter++
	}
	powT *= blackoutFactor

	spread := tSupply + 5 - roomTemp
	capWh, volume := storage.HeatingSystemStorage(powT, spread, rng)
	// the storage must take the heat pump at 20 °C plus the boiler
	maxPower := powT*component.Q(powT, roomTemp, tSupply) + qHLN

	return Design{
		PowerT:            powT,
		MinWorkingTemp:    tMin,
		MeanCOP:           meanCOP,
		Iterations:        iter,
		BoilerPowerT:      qHLN,
		StorageCapacityWh: capWh,
		StorageVolume:     volume,
		StorageSelfLoss:   storage.LossParameter(volume, capWh),
		StorageMaxPowerW:  maxPower,
	}, nil
}
