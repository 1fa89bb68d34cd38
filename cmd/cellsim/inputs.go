package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"cellsim/internal/ingest"
	"cellsim/internal/model"
	"cellsim/internal/scenario"
	"cellsim/internal/store"
	"cellsim/internal/weather"
)

// loadInputs fills a store with the drive samples of s and returns the
// reference year when a heat pump needs one. Relative paths resolve against
// baseDir.
func loadInputs(s *scenario.Scenario, baseDir string, log *zap.Logger) (*store.Store, []float64, error) {
	st := store.New()

	if s.Inputs.Synthetic {
		gen := weather.New(s.Inputs.Climate)
		st.AddSamples(gen.Samples(s.Simulation.Start, s.Simulation.Steps))
		log.Info("generated synthetic inputs",
			zap.Int("samples", st.Len()),
			zap.Time("start", s.Simulation.Start),
		)
	} else {
		samples, err := loadCSVInputs(s.Inputs, baseDir, log)
		if err != nil {
			return nil, nil, err
		}
		st.AddSamples(samples)
	}

	if !s.NeedsReferenceYear() {
		return st, nil, nil
	}
	refYear, err := loadReferenceYear(s, baseDir)
	if err != nil {
		return nil, nil, err
	}
	return st, refYear, nil
}

// loadCSVInputs reads the weather series and merges the load profile and
// hot water series onto it. Missing profile files fall back to the built-in
// profiles.
func loadCSVInputs(in scenario.Inputs, baseDir string, log *zap.Logger) ([]model.Sample, error) {
	weatherSamples, err := parseFile(resolve(baseDir, in.Weather), ingest.WeatherParser{})
	if err != nil {
		return nil, err
	}
	if len(weatherSamples) == 0 {
		return nil, fmt.Errorf("no weather samples in %s", in.Weather)
	}

	var slp, hotWater []model.Sample
	if in.SLP != "" {
		if slp, err = parseFile(resolve(baseDir, in.SLP), ingest.SLPParser{}); err != nil {
			return nil, err
		}
	}
	if in.HotWater != "" {
		if hotWater, err = parseFile(resolve(baseDir, in.HotWater), ingest.HotWaterParser{}); err != nil {
			return nil, err
		}
	}

	samples := ingest.Merge(weatherSamples, slp, hotWater)
	for i := range samples {
		if in.SLP == "" {
			samples[i].SLP = weather.SLP(samples[i].Timestamp)
		}
		if in.HotWater == "" {
			samples[i].HotWater = weather.HotWaterFactor(samples[i].Timestamp)
		}
	}

	log.Info("loaded CSV inputs",
		zap.String("weather", in.Weather),
		zap.Int("samples", len(samples)),
		zap.Int("slp_rows", len(slp)),
		zap.Int("hot_water_rows", len(hotWater)),
	)
	return samples, nil
}

func loadReferenceYear(s *scenario.Scenario, baseDir string) ([]float64, error) {
	if s.Inputs.ReferenceYear == "" {
		cfg := s.Inputs.Climate
		if cfg == (weather.Config{}) {
			cfg = weather.DefaultConfig()
		}
		return weather.New(cfg).ReferenceYear(s.Simulation.Start.Year() - 1), nil
	}
	return readReferenceYear(resolve(baseDir, s.Inputs.ReferenceYear))
}

func readReferenceYear(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	temps, err := ingest.ParseReferenceYear(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return temps, nil
}

func parseFile(path string, p ingest.Parser) ([]model.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	samples, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return samples, nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
