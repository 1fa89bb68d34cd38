// Package ingest reads the drive series of a simulation run from CSV:
// weather, standard load profiles, hot water profile and reference year.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cellsim/internal/model"
)

// Parser reads one drive series and returns samples carrying only the
// fields of that series.
type Parser interface {
	Parse(r io.Reader) ([]model.Sample, error)
}

func validateHeader(header, expected []string) error {
	if len(header) < len(expected) {
		return fmt.Errorf("expected at least %d columns, got %d", len(expected), len(header))
	}
	for i, col := range expected {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		ts, err = time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	}
	return ts, err
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// readTimed reads a CSV with a timestamp column followed by len(columns)-1
// numeric columns. Unparseable rows are skipped.
func readTimed(r io.Reader, columns []string, row func(ts time.Time, v []float64) model.Sample) ([]model.Sample, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateHeader(header, columns); err != nil {
		return nil, err
	}

	var samples []model.Sample
	lineNum := 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		if len(record) < len(columns) {
			continue
		}
		ts, err := parseTimestamp(record[0])
		if err != nil {
			continue
		}
		values, err := parseFloats(record[1:len(columns)])
		if err != nil {
			continue
		}
		samples = append(samples, row(ts, values))
	}
	return samples, nil
}
