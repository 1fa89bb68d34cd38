// Package weather generates deterministic synthetic drive samples: ambient
// conditions, standard load profiles, hot water factors and an hourly
// reference year.
package weather

import (
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"

	"cellsim/internal/model"
)

const (
	solarConstant = 1361.0 // W/m²
	hoursPerYear  = 8760
)

// Config parameterizes the synthetic climate.
type Config struct {
	Seed            int64   `yaml:"seed"`
	Latitude        float64 `yaml:"latitude"`         // degrees north
	MeanTemp        float64 `yaml:"mean_temp"`        // °C
	AnnualAmplitude float64 `yaml:"annual_amplitude"` // K
	DailyAmplitude  float64 `yaml:"daily_amplitude"`  // K
	NoiseAmplitude  float64 `yaml:"noise_amplitude"`  // K
	MeanWind        float64 `yaml:"mean_wind"`        // m/s at 10 m
}

// DefaultConfig is a central European climate.
func DefaultConfig() Config {
	return Config{
		Latitude:        51,
		MeanTemp:        9.5,
		AnnualAmplitude: 9,
		DailyAmplitude:  4,
		NoiseAmplitude:  3,
		MeanWind:        4,
	}
}

// Generator evaluates the synthetic climate at any point in time.
type Generator struct {
	cfg   Config
	temp  opensimplex.Noise
	cloud opensimplex.Noise
	wind  opensimplex.Noise
}

func New(cfg Config) *Generator {
	return &Generator{
		cfg:   cfg,
		temp:  opensimplex.New(cfg.Seed),
		cloud: opensimplex.NewNormalized(cfg.Seed + 1),
		wind:  opensimplex.New(cfg.Seed + 2),
	}
}

// octaveNoise layers several frequencies of noise along one time axis.
func octaveNoise(noise opensimplex.Noise, x float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, 0) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func hoursSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) / 3600
}

func dayOfYear(t time.Time) float64 {
	return float64(t.YearDay()) - 1 + float64(t.Hour())/24 + float64(t.Minute())/1440
}

// Temperature returns the outdoor temperature in °C.
func (g *Generator) Temperature(t time.Time) float64 {
	doy := dayOfYear(t)
	hour := float64(t.Hour()) + float64(t.Minute())/60
	seasonal := -g.cfg.AnnualAmplitude * math.Cos(2*math.Pi*(doy-15)/365)
	diurnal := g.cfg.DailyAmplitude * math.Sin(2*math.Pi*(hour-9)/24)
	noise := g.cfg.NoiseAmplitude * octaveNoise(g.temp, hoursSinceEpoch(t), 3, 1.0/72, 0.5)
	return g.cfg.MeanTemp + seasonal + diurnal + noise
}

// DailyMeanTemperature averages the hourly temperatures of t's day.
func (g *Generator) DailyMeanTemperature(t time.Time) float64 {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	hourly := make([]float64, 24)
	for h := range hourly {
		hourly[h] = g.Temperature(day.Add(time.Duration(h) * time.Hour))
	}
	return floats.Sum(hourly) / 24
}

// SolarPosition returns elevation and azimuth in degrees, azimuth measured
// from south with west positive. t is taken as local solar time.
func SolarPosition(latitude float64, t time.Time) (elevation, azimuth float64) {
	const rad = math.Pi / 180
	doy := float64(t.YearDay())
	hour := float64(t.Hour()) + float64(t.Minute())/60

	decl := 23.45 * rad * math.Sin(2*math.Pi*(284+doy)/365)
	omega := 15 * rad * (hour - 12)
	phi := latitude * rad

	sinH := math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Cos(omega)
	elevation = math.Asin(sinH) / rad
	azimuth = math.Atan2(math.Sin(omega), math.Sin(phi)*math.Cos(omega)-math.Cos(phi)*math.Tan(decl)) / rad
	return elevation, azimuth
}

// Ambient returns the full ambient sample at t.
func (g *Generator) Ambient(t time.Time) model.Ambient {
	elevation, azimuth := SolarPosition(g.cfg.Latitude, t)
	amb := model.Ambient{
		SolarElevation:       elevation,
		SolarAzimuth:         azimuth,
		OutdoorTemp:          g.Temperature(t),
		DailyMeanOutdoorTemp: g.DailyMeanTemperature(t),
	}

	x := hoursSinceEpoch(t)
	amb.WindSpeed = max(0, g.cfg.MeanWind*(1+0.6*octaveNoise(g.wind, x, 2, 1.0/12, 0.5)))

	if elevation > 0 {
		cloud := g.cloud.Eval2(x/24, 0)
		clearness := 0.75 - 0.5*cloud
		global := solarConstant * math.Sin(elevation*math.Pi/180) * clearness
		diffuseShare := 0.25 + 0.7*cloud
		amb.DiffuseIrradiance = global * diffuseShare
		amb.DirectIrradiance = global - amb.DiffuseIrradiance
	}
	return amb
}

// ReferenceYear returns hourly outdoor temperatures of the given year,
// trimmed or padded to 8760 hours.
func (g *Generator) ReferenceYear(year int) []float64 {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	temps := make([]float64, hoursPerYear)
	for h := range temps {
		temps[h] = g.Temperature(start.Add(time.Duration(h) * time.Hour))
	}
	return temps
}
