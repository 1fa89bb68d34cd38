package ingest

import (
	"io"
	"time"

	"cellsim/internal/model"
)

var weatherColumns = []string{"timestamp", "direct", "diffuse", "elevation", "azimuth", "wind", "t_out", "t_out_mean"}

// WeatherParser parses weather and solar position series.
//
// Expected format:
//
//	timestamp,direct,diffuse,elevation,azimuth,wind,t_out,t_out_mean
//	2024-01-01T00:00:00Z,0,0,-60.2,12.5,3.1,-2.4,-1.8
type WeatherParser struct{}

func (WeatherParser) Parse(r io.Reader) ([]model.Sample, error) {
	return readTimed(r, weatherColumns, func(ts time.Time, v []float64) model.Sample {
		return model.Sample{
			Timestamp: ts,
			Ambient: model.Ambient{
				DirectIrradiance:     v[0],
				DiffuseIrradiance:    v[1],
				SolarElevation:       v[2],
				SolarAzimuth:         v[3],
				WindSpeed:            v[4],
				OutdoorTemp:          v[5],
				DailyMeanOutdoorTemp: v[6],
			},
		}
	})
}

var slpColumns = []string{"timestamp", "phh", "bsla", "bslc"}

// SLPParser parses standard load profiles, one column per agent type, in W
// per MWh of annual consumption.
//
// Expected format:
//
//	timestamp,phh,bsla,bslc
//	2024-01-01T00:00:00Z,85.2,60.1,71.9
type SLPParser struct{}

func (SLPParser) Parse(r io.Reader) ([]model.Sample, error) {
	return readTimed(r, slpColumns, func(ts time.Time, v []float64) model.Sample {
		return model.Sample{Timestamp: ts, SLP: model.SLP{v[0], v[1], v[2]}}
	})
}

var hotWaterColumns = []string{"timestamp", "factor"}

// HotWaterParser parses the hot water day profile factor.
//
// Expected format:
//
//	timestamp,factor
//	2024-01-01T00:00:00Z,0.42
type HotWaterParser struct{}

func (HotWaterParser) Parse(r io.Reader) ([]model.Sample, error) {
	return readTimed(r, hotWaterColumns, func(ts time.Time, v []float64) model.Sample {
		return model.Sample{Timestamp: ts, HotWater: v[0]}
	})
}
