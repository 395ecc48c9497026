package sensitivity

import (
	"context"

	"github.com/samber/lo"

	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
)

// Axis is one dimension of a heatmap: a parameter and the deltas applied to
// the model's own value for it.
type Axis struct {
	Parameter investment.Parameter `json:"parameter"`
	Deltas    []float64            `json:"deltas"`
}

// Grid lays out a two-parameter heatmap.
type Grid struct {
	Row    Axis `json:"row"`
	Column Axis `json:"column"`
}

// DefaultGrid is revenue growth (rows) against exit multiple (columns).
func DefaultGrid() Grid {
	return Grid{
		Row:    Axis{Parameter: investment.ParamRevenueGrowth, Deltas: []float64{-4, -2, 0, 2, 4}},
		Column: Axis{Parameter: investment.ParamExitMultiple, Deltas: []float64{-2, -1, 0, 1, 2}},
	}
}

// Labels renders each probed value of the axis around the model's own value,
// e.g. "12.0%" or "10.0x".
func (a Axis) Labels(m *investment.Model) []string {
	base, _ := m.Assumptions().Get(a.Parameter)
	return Labels(a.Parameter, base, a.Deltas)
}

// Labels renders base+delta for each delta in the parameter's display style.
func Labels(p investment.Parameter, base float64, deltas []float64) []string {
	return lo.Map(deltas, func(d float64, _ int) string {
		v := base + d
		switch p.Kind() {
		case investment.KindPercent:
			return format.Percent(v, 1)
		case investment.KindMultiple:
			return format.Multiple(v, 1)
		case investment.KindYears:
			return format.Years(v)
		}
		return format.Currency(v, "")
	})
}

// Heatmap is an evaluated Grid with its labels.
type Heatmap struct {
	Metric       investment.Metric    `json:"metric"`
	RowParameter investment.Parameter `json:"row_parameter"`
	ColParameter investment.Parameter `json:"column_parameter"`
	RowLabels    []string             `json:"row_labels"`
	ColLabels    []string             `json:"column_labels"`
	Values       [][]float64          `json:"values"`
}

// Heatmap evaluates g around the model's own values for both parameters.
func (r *Runner) Heatmap(ctx context.Context, m *investment.Model, g Grid, target investment.Metric) (Heatmap, error) {
	rowBase, err := m.Assumptions().Get(g.Row.Parameter)
	if err != nil {
		return Heatmap{}, err
	}
	colBase, err := m.Assumptions().Get(g.Column.Parameter)
	if err != nil {
		return Heatmap{}, err
	}

	values, err := r.Matrix(ctx, m, MatrixRequest{
		RowParameter:    g.Row.Parameter,
		RowBase:         rowBase,
		RowDeltas:       g.Row.Deltas,
		ColumnParameter: g.Column.Parameter,
		ColumnBase:      colBase,
		ColumnDeltas:    g.Column.Deltas,
		Metric:          target,
	})
	if err != nil {
		return Heatmap{}, err
	}

	return Heatmap{
		Metric:       target,
		RowParameter: g.Row.Parameter,
		ColParameter: g.Column.Parameter,
		RowLabels:    g.Row.Labels(m),
		ColLabels:    g.Column.Labels(m),
		Values:       values,
	}, nil
}
