package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HoursPerYear is the length of a reference year series.
const HoursPerYear = 8760

// ParseReferenceYear reads an hourly outdoor temperature series, one value
// per row under a "t_out" header. Exactly HoursPerYear rows are required.
func ParseReferenceYear(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateHeader(header, []string{"t_out"}); err != nil {
		return nil, err
	}

	temps := make([]float64, 0, HoursPerYear)
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
		v, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing temperature %q: %w", lineNum, record[0], err)
		}
		temps = append(temps, v)
	}
	if len(temps) != HoursPerYear {
		return nil, fmt.Errorf("reference year has %d hours, want %d", len(temps), HoursPerYear)
	}
	return temps, nil
}
