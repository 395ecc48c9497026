package sensitivity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"pe_modeller/pkg/core/investment"
)

// Swing is a low/high perturbation of one parameter around the model's own
// value.
type Swing struct {
	Parameter investment.Parameter `json:"parameter"`
	Low       float64              `json:"low"`
	High      float64              `json:"high"`
}

// DefaultSwings are the parameter-impact perturbations shown by default.
func DefaultSwings() []Swing {
	return []Swing{
		{Parameter: investment.ParamRevenueGrowth, Low: -5, High: 5},
		{Parameter: investment.ParamInitialEBITDAMargin, Low: -5, High: 5},
		{Parameter: investment.ParamExitEBITDAMargin, Low: -5, High: 5},
		{Parameter: investment.ParamEntryMultiple, Low: -2, High: 2},
		{Parameter: investment.ParamExitMultiple, Low: -2, High: 2},
		{Parameter: investment.ParamHoldingPeriod, Low: -1, High: 1},
	}
}

// Bar is one row of a tornado chart.
type Bar struct {
	Parameter investment.Parameter `json:"parameter"`
	Label     string               `json:"label"`
	Low       float64              `json:"low"`       // metric at value+swing.Low
	High      float64              `json:"high"`      // metric at value+swing.High
	LowDiff   float64              `json:"low_diff"`  // Low - base
	HighDiff  float64              `json:"high_diff"` // High - base
	Spread    float64              `json:"spread"`    // |High - Low|
}

// TornadoResult ranks parameters by how far they move the target metric.
type TornadoResult struct {
	Metric investment.Metric `json:"metric"`
	Base   float64           `json:"base"`
	Bars   []Bar             `json:"bars"`
}

// Tornado evaluates every swing and returns the bars ordered by spread,
// largest first. Ties keep the order of swings. A bar whose spread is NaN
// (undefined IRR at either end) sorts last.
//
// FORMULA:
//
//	low    = metric(value + swing.low)
//	high   = metric(value + swing.high)
//	spread = |high − low|
func (r *Runner) Tornado(ctx context.Context, m *investment.Model, target investment.Metric, swings []Swing) (TornadoResult, error) {
	base, err := m.Metric(target)
	if err != nil {
		return TornadoResult{}, err
	}

	bars := make([]Bar, 0, len(swings))
	for _, s := range swings {
		value, err := m.Assumptions().Get(s.Parameter)
		if err != nil {
			return TornadoResult{}, err
		}
		vals, err := r.Sweep(ctx, m, SweepRequest{
			Parameter: s.Parameter,
			Base:      value,
			Deltas:    []float64{s.Low, s.High},
			Metric:    target,
		})
		if err != nil {
			return TornadoResult{}, fmt.Errorf("tornado %s: %w", s.Parameter, err)
		}
		bars = append(bars, Bar{
			Parameter: s.Parameter,
			Label:     s.Parameter.Label(),
			Low:       vals[0],
			High:      vals[1],
			LowDiff:   vals[0] - base,
			HighDiff:  vals[1] - base,
			Spread:    math.Abs(vals[1] - vals[0]),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return sortSpread(bars[i].Spread) > sortSpread(bars[j].Spread)
	})

	return TornadoResult{Metric: target, Base: base, Bars: bars}, nil
}

// Labels returns the bar labels in ranked order.
func (t TornadoResult) Labels() []string {
	return lo.Map(t.Bars, func(b Bar, _ int) string { return b.Label })
}

func sortSpread(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
