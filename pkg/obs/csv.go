// Package obs loads water-level observation tables from CSV files using
// configurable column bindings.
package obs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hveclab/tidego/internal/tide"
)

// Bindings names the columns of the observation table and how to parse
// its timestamps.
type Bindings struct {
	Time     string
	Level    string
	Location string // optional; empty means a single unnamed location

	TimeLayout string // Go reference layout, default time.RFC3339
	Timezone   string // IANA name for layouts without an offset, default UTC
}

// ReadCSV loads the observation table at path. Rows keep file order.
// Blank or unparseable levels become NaN (missing), so segment counting
// downstream stays honest; an unparseable timestamp is an error since
// nothing downstream can recover from it.
func ReadCSV(path string, b Bindings) ([]tide.Observation, error) {
	if b.TimeLayout == "" {
		b.TimeLayout = time.RFC3339
	}
	loc := time.UTC
	if b.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(b.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", b.Timezone, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	timeIdx, err := columnIndex(header, b.Time)
	if err != nil {
		return nil, err
	}
	levelIdx, err := columnIndex(header, b.Level)
	if err != nil {
		return nil, err
	}
	locIdx := -1
	if b.Location != "" {
		if locIdx, err = columnIndex(header, b.Location); err != nil {
			return nil, err
		}
	}

	var out []tide.Observation
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		ts, err := time.ParseInLocation(b.TimeLayout, record[timeIdx], loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad timestamp %q: %w", line, record[timeIdx], err)
		}

		level := math.NaN()
		if raw := strings.TrimSpace(record[levelIdx]); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				level = v
			}
		}

		o := tide.Observation{Time: ts, Level: level}
		if locIdx >= 0 {
			o.Location = record[locIdx]
		}
		out = append(out, o)
	}
	return out, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found in header %v", name, header)
}
