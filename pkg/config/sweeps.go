package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/sensitivity"
)

// Sweeps are the default parameter-impact swings and heatmap layout.
type Sweeps struct {
	Swings []sensitivity.Swing
	Grid   sensitivity.Grid
}

// DefaultSweeps returns the built-in swings and grid.
func DefaultSweeps() Sweeps {
	return Sweeps{Swings: sensitivity.DefaultSwings(), Grid: sensitivity.DefaultGrid()}
}

type sweepsFile struct {
	Tornado []struct {
		Parameter string  `yaml:"parameter"`
		Low       float64 `yaml:"low"`
		High      float64 `yaml:"high"`
	} `yaml:"tornado"`
	Heatmap *struct {
		Row    axisFile `yaml:"row"`
		Column axisFile `yaml:"column"`
	} `yaml:"heatmap"`
}

type axisFile struct {
	Parameter string    `yaml:"parameter"`
	Deltas    []float64 `yaml:"deltas"`
}

// LoadSweeps reads a sweeps file. A missing file yields DefaultSweeps; a
// section absent from the file keeps its default.
func LoadSweeps(path string) (Sweeps, error) {
	out := DefaultSweeps()
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return Sweeps{}, fmt.Errorf("failed to read sweeps file: %w", err)
	}
	return ParseSweeps(data)
}

// ParseSweeps decodes sweeps YAML on top of the defaults.
func ParseSweeps(data []byte) (Sweeps, error) {
	out := DefaultSweeps()

	var raw sweepsFile
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return Sweeps{}, fmt.Errorf("failed to parse sweeps file: %w", err)
	}

	if len(raw.Tornado) > 0 {
		swings := make([]sensitivity.Swing, 0, len(raw.Tornado))
		for i, t := range raw.Tornado {
			p, err := investment.ParseParameter(t.Parameter)
			if err != nil {
				return Sweeps{}, fmt.Errorf("tornado[%d]: %w", i, err)
			}
			swings = append(swings, sensitivity.Swing{Parameter: p, Low: t.Low, High: t.High})
		}
		out.Swings = swings
	}

	if raw.Heatmap != nil {
		row, err := parseAxis("heatmap.row", raw.Heatmap.Row)
		if err != nil {
			return Sweeps{}, err
		}
		col, err := parseAxis("heatmap.column", raw.Heatmap.Column)
		if err != nil {
			return Sweeps{}, err
		}
		out.Grid = sensitivity.Grid{Row: row, Column: col}
	}

	return out, nil
}

func parseAxis(where string, a axisFile) (sensitivity.Axis, error) {
	p, err := investment.ParseParameter(a.Parameter)
	if err != nil {
		return sensitivity.Axis{}, fmt.Errorf("%s: %w", where, err)
	}
	if len(a.Deltas) == 0 {
		return sensitivity.Axis{}, fmt.Errorf("%s: %w: deltas must not be empty", where, investment.ErrInvalidInput)
	}
	return sensitivity.Axis{Parameter: p, Deltas: a.Deltas}, nil
}
