package sensitivity

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"pe_modeller/pkg/core/investment"
)

func baseModel(t *testing.T) *investment.Model {
	t.Helper()
	m, err := investment.New(investment.Assumptions{
		InitialRevenue:      10_000_000,
		InitialEBITDAMargin: 15,
		EntryMultiple:       8,
		RevenueGrowth:       10,
		HoldingPeriod:       5,
		ExitEBITDAMargin:    20,
		ExitMultiple:        10,
	})
	if err != nil {
		t.Fatalf("investment.New: %v", err)
	}
	return m
}

// memCache counts calls so tests can observe memoization.
type memCache struct {
	mu   sync.Mutex
	data map[string][][]float64
	gets int
	puts int
}

func newMemCache() *memCache { return &memCache{data: map[string][][]float64{}} }

func (c *memCache) Get(_ context.Context, key string) ([][]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Put(_ context.Context, key string, grid [][]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.data[key] = grid
	return nil
}

func TestRunnerSweep_MatchesSequential(t *testing.T) {
	m := baseModel(t)
	deltas := []float64{-6, -4, -2, -1, 0, 1, 2, 4, 6, 8, 10}

	for _, workers := range []int{1, 3, 16} {
		r := NewRunner(workers, nil)
		for _, metric := range []investment.Metric{investment.MetricIRR, investment.MetricMoneyMultiple} {
			got, err := r.Sweep(context.Background(), m, SweepRequest{
				Parameter: investment.ParamRevenueGrowth, Base: 10, Deltas: deltas, Metric: metric,
			})
			if err != nil {
				t.Fatalf("workers=%d: %v", workers, err)
			}
			want, err := m.Sensitivity(investment.ParamRevenueGrowth, 10, deltas, metric)
			if err != nil {
				t.Fatalf("sequential: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("workers=%d: length %d, want %d", workers, len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("workers=%d %s [%d]: got %v, want %v", workers, metric, i, got[i], want[i])
				}
			}
		}
	}
}

func TestRunnerMatrix_MatchesSequential(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(4, nil)
	rows := []float64{-4, -2, 0, 2, 4}
	cols := []float64{-2, -1, 0, 1, 2, 3}

	got, err := r.Matrix(context.Background(), m, MatrixRequest{
		RowParameter: investment.ParamRevenueGrowth, RowBase: 10, RowDeltas: rows,
		ColumnParameter: investment.ParamExitMultiple, ColumnBase: 10, ColumnDeltas: cols,
		Metric: investment.MetricIRR,
	})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	want, err := m.SensitivityMatrix(investment.ParamRevenueGrowth, 10, rows, investment.ParamExitMultiple, 10, cols, investment.MetricIRR)
	if err != nil {
		t.Fatalf("SensitivityMatrix: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("rows: got %d, want %d", len(got), len(rows))
	}
	for i := range want {
		if len(got[i]) != len(cols) {
			t.Fatalf("row %d: got %d columns", i, len(got[i]))
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("[%d][%d]: got %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestRunnerSweep_FailingProbe(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(2, nil)

	_, err := r.Sweep(context.Background(), m, SweepRequest{
		Parameter: investment.ParamHoldingPeriod, Base: 5, Deltas: []float64{-1, 0, -5, 1}, Metric: investment.MetricIRR,
	})
	if !errors.Is(err, investment.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRunnerSweep_InvalidRequest(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(2, nil)

	if _, err := r.Sweep(context.Background(), m, SweepRequest{Parameter: 0, Metric: investment.MetricIRR}); !errors.Is(err, investment.ErrInvalidInput) {
		t.Errorf("unknown parameter: got %v", err)
	}
	if _, err := r.Matrix(context.Background(), m, MatrixRequest{
		RowParameter: investment.ParamExitMultiple, ColumnParameter: investment.ParamExitMultiple,
	}); !errors.Is(err, investment.ErrInvalidInput) {
		t.Errorf("unknown metric: got %v", err)
	}
}

func TestRunnerSweep_CancelledContext(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Sweep(ctx, m, SweepRequest{
		Parameter: investment.ParamExitMultiple, Base: 10, Deltas: []float64{0, 1, 2}, Metric: investment.MetricIRR,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunnerSweep_UsesCache(t *testing.T) {
	m := baseModel(t)
	cache := newMemCache()
	r := NewRunner(2, cache)
	req := SweepRequest{Parameter: investment.ParamExitMultiple, Base: 10, Deltas: []float64{-1, 0, 1}, Metric: investment.MetricMoneyMultiple}

	first, err := r.Sweep(context.Background(), m, req)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := r.Sweep(context.Background(), m, req)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}

	if cache.puts != 1 || cache.gets != 2 {
		t.Errorf("expected 2 gets and 1 put, got %d gets, %d puts", cache.gets, cache.puts)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("[%d]: cached %v differs from computed %v", i, second[i], first[i])
		}
	}

	// A different base is a different key.
	req.Base = 11
	if _, err := r.Sweep(context.Background(), m, req); err != nil {
		t.Fatalf("third sweep: %v", err)
	}
	if cache.puts != 2 {
		t.Errorf("expected a new entry for a different base, got %d puts", cache.puts)
	}
}

func TestSweepKey_Distinguishes(t *testing.T) {
	a := baseModel(t).Assumptions()
	req := SweepRequest{Parameter: investment.ParamExitMultiple, Base: 10, Deltas: []float64{1, 2}, Metric: investment.MetricIRR}

	k1 := sweepKey(a, req)
	req.Metric = investment.MetricMoneyMultiple
	k2 := sweepKey(a, req)
	req.Deltas = []float64{1, 2.0000000001}
	k3 := sweepKey(a, req)

	if k1 == k2 || k2 == k3 {
		t.Errorf("expected distinct keys, got %q %q %q", k1, k2, k3)
	}
	if sweepKey(a, req) != k3 {
		t.Error("key is not deterministic")
	}
}

func TestNewRunner_DefaultWorkers(t *testing.T) {
	if NewRunner(0, nil).Workers() < 1 {
		t.Error("expected at least one worker")
	}
	if got := NewRunner(7, nil).Workers(); got != 7 {
		t.Errorf("expected 7 workers, got %d", got)
	}
}

func TestTornado_DefaultSwings(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(4, nil)

	res, err := r.Tornado(context.Background(), m, investment.MetricIRR, DefaultSwings())
	if err != nil {
		t.Fatalf("Tornado: %v", err)
	}
	if res.Base != m.IRR()*100 {
		t.Errorf("base: got %v, want %v", res.Base, m.IRR()*100)
	}
	if len(res.Bars) != 6 {
		t.Fatalf("expected 6 bars, got %d", len(res.Bars))
	}

	for i := 1; i < len(res.Bars); i++ {
		if res.Bars[i].Spread > res.Bars[i-1].Spread {
			t.Errorf("bars not sorted at %d: %v > %v", i, res.Bars[i].Spread, res.Bars[i-1].Spread)
		}
	}
	for _, b := range res.Bars {
		if math.Abs(b.LowDiff-(b.Low-res.Base)) > 1e-12 || math.Abs(b.HighDiff-(b.High-res.Base)) > 1e-12 {
			t.Errorf("%s: diffs inconsistent: %+v", b.Label, b)
		}
		if math.Abs(b.Spread-math.Abs(b.High-b.Low)) > 1e-12 {
			t.Errorf("%s: spread inconsistent: %+v", b.Label, b)
		}
	}

	// Raising the entry multiple lowers returns.
	for _, b := range res.Bars {
		if b.Parameter == investment.ParamEntryMultiple && b.High >= b.Low {
			t.Errorf("entry multiple: expected high < low, got %+v", b)
		}
	}
	if len(res.Labels()) != 6 {
		t.Errorf("expected 6 labels, got %v", res.Labels())
	}
}

func TestTornado_StableTies(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(2, nil)
	swings := []Swing{
		{Parameter: investment.ParamExitMultiple, Low: 0, High: 0},
		{Parameter: investment.ParamEntryMultiple, Low: 0, High: 0},
	}
	res, err := r.Tornado(context.Background(), m, investment.MetricMoneyMultiple, swings)
	if err != nil {
		t.Fatalf("Tornado: %v", err)
	}
	if res.Bars[0].Parameter != investment.ParamExitMultiple || res.Bars[1].Parameter != investment.ParamEntryMultiple {
		t.Errorf("tie order not preserved: %v", res.Labels())
	}
}

func TestTornado_FailingSwing(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(2, nil)
	_, err := r.Tornado(context.Background(), m, investment.MetricIRR, []Swing{
		{Parameter: investment.ParamHoldingPeriod, Low: -5, High: 1},
	})
	if !errors.Is(err, investment.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHeatmap_DefaultGrid(t *testing.T) {
	m := baseModel(t)
	r := NewRunner(4, nil)

	h, err := r.Heatmap(context.Background(), m, DefaultGrid(), investment.MetricIRR)
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}

	wantRows := []string{"6.0%", "8.0%", "10.0%", "12.0%", "14.0%"}
	wantCols := []string{"8.0x", "9.0x", "10.0x", "11.0x", "12.0x"}
	for i, l := range wantRows {
		if h.RowLabels[i] != l {
			t.Errorf("row label %d: got %q, want %q", i, h.RowLabels[i], l)
		}
	}
	for j, l := range wantCols {
		if h.ColLabels[j] != l {
			t.Errorf("column label %d: got %q, want %q", j, h.ColLabels[j], l)
		}
	}

	if len(h.Values) != 5 || len(h.Values[0]) != 5 {
		t.Fatalf("expected 5x5 grid, got %dx%d", len(h.Values), len(h.Values[0]))
	}
	if h.Values[2][2] != m.IRR()*100 {
		t.Errorf("centre: got %v, want %v", h.Values[2][2], m.IRR()*100)
	}
}
