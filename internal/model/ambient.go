package model

import "time"

// TimeStep is the fixed simulation step in hours.
const TimeStep = 0.25

// Orientations of the four facade directions, clockwise from south, in degrees.
var Orientations = [4]float64{0, 90, 180, 270}

// Ambient is the weather and solar-geometry sample for one step.
//
// Irradiance is in W/m², angles in degrees, temperatures in °C, wind speed in m/s.
// SpecificGains is filled in by the owning cell before buildings are stepped:
// window-area specific irradiance for south, west, north and east facades.
type Ambient struct {
	DirectIrradiance     float64
	DiffuseIrradiance    float64
	SolarElevation       float64
	SolarAzimuth         float64
	WindSpeed            float64
	OutdoorTemp          float64
	DailyMeanOutdoorTemp float64
	SpecificGains        [4]float64
}

// GlobalIrradiance returns direct plus diffuse irradiance.
func (a Ambient) GlobalIrradiance() float64 {
	return a.DirectIrradiance + a.DiffuseIrradiance
}

// Sample is one row of drive data fed into the root cell.
type Sample struct {
	Timestamp time.Time
	Ambient   Ambient
	SLP       SLP
	HotWater  float64
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}
