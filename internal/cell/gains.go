package cell

import (
	"math"

	"cellsim/internal/model"
)

// windowTilt is the tilt of a vertical window.
const windowTilt = math.Pi / 2

// SpecificGains returns the irradiance in W/m² on vertical windows facing
// each of model.Orientations. The direct part counts only while the sun is
// above the horizon and in front of the window; the diffuse part is isotropic.
func SpecificGains(amb model.Ambient) [4]float64 {
	var gains [4]float64
	h := amb.SolarElevation * math.Pi / 180
	gamma := amb.SolarAzimuth * math.Pi / 180
	diffuse := amb.DiffuseIrradiance * (1 + math.Cos(windowTilt)) / 2

	for i, o := range model.Orientations {
		if h > 0 {
			delta := o*math.Pi/180 - gamma
			if delta > -math.Pi/2 && delta < math.Pi/2 {
				gains[i] += amb.DirectIrradiance *
					(math.Sin(h)*math.Cos(windowTilt) + math.Cos(h)*math.Cos(delta)*math.Sin(windowTilt))
			}
		}
		gains[i] += diffuse
	}
	return gains
}
