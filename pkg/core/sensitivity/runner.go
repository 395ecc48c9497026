// Package sensitivity runs what-if sweeps over an investment.Model: one- and
// two-parameter grids evaluated concurrently, the parameter-impact (tornado)
// ranking and the default heatmap layout.
//
// Every probe builds its own Model from a copy of the assumptions, so the
// workers share nothing but the output slice, and each writes only its slot.
package sensitivity

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pe_modeller/pkg/core/investment"
)

// Cache memoizes sweep results. Sweeps are stored as a single-row grid.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([][]float64, bool)
	Put(ctx context.Context, key string, grid [][]float64) error
}

// SweepRequest describes a one-parameter sweep. Base is taken as given and
// need not equal the model's own value.
type SweepRequest struct {
	Parameter investment.Parameter
	Base      float64
	Deltas    []float64
	Metric    investment.Metric
}

// MatrixRequest describes a two-parameter grid. Rows follow the first
// parameter, columns the second.
type MatrixRequest struct {
	RowParameter    investment.Parameter
	RowBase         float64
	RowDeltas       []float64
	ColumnParameter investment.Parameter
	ColumnBase      float64
	ColumnDeltas    []float64
	Metric          investment.Metric
}

// Runner evaluates sweeps with a bounded pool of goroutines.
type Runner struct {
	workers int
	cache   Cache
}

// NewRunner returns a Runner using at most workers goroutines per sweep.
// workers <= 0 means GOMAXPROCS. cache may be nil.
func NewRunner(workers int, cache Cache) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{workers: workers, cache: cache}
}

// Workers reports the concurrency limit.
func (r *Runner) Workers() int { return r.workers }

// Sweep returns req.Metric for every delta, in delta order. The values are
// identical to m.Sensitivity with the same arguments.
func (r *Runner) Sweep(ctx context.Context, m *investment.Model, req SweepRequest) ([]float64, error) {
	if !req.Parameter.Valid() {
		return nil, fmt.Errorf("%w: unknown parameter %d", investment.ErrInvalidInput, int(req.Parameter))
	}
	if !req.Metric.Valid() {
		return nil, fmt.Errorf("%w: unknown metric %d", investment.ErrInvalidInput, int(req.Metric))
	}

	key := sweepKey(m.Assumptions(), req)
	if grid, ok := r.lookup(ctx, key); ok && len(grid) == 1 && len(grid[0]) == len(req.Deltas) {
		return grid[0], nil
	}

	start := time.Now()
	results := make([]float64, len(req.Deltas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, delta := range req.Deltas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := m.Probe(req.Metric, investment.Override{Parameter: req.Parameter, Value: req.Base + delta})
			if err != nil {
				return fmt.Errorf("sensitivity %s[%d] delta %v: %w", req.Parameter, i, delta, err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	probesTotal.WithLabelValues("sweep", req.Metric.String()).Add(float64(len(req.Deltas)))
	sweepDuration.WithLabelValues("sweep").Observe(time.Since(start).Seconds())

	r.store(ctx, key, [][]float64{results})
	return results, nil
}

// Matrix returns a row-major grid: [i][j] is req.Metric with the row
// parameter at RowBase+RowDeltas[i] and the column parameter at
// ColumnBase+ColumnDeltas[j]. The column assignment is applied last.
func (r *Runner) Matrix(ctx context.Context, m *investment.Model, req MatrixRequest) ([][]float64, error) {
	if !req.RowParameter.Valid() || !req.ColumnParameter.Valid() {
		return nil, fmt.Errorf("%w: unknown parameter in (%d, %d)",
			investment.ErrInvalidInput, int(req.RowParameter), int(req.ColumnParameter))
	}
	if !req.Metric.Valid() {
		return nil, fmt.Errorf("%w: unknown metric %d", investment.ErrInvalidInput, int(req.Metric))
	}

	rows, cols := len(req.RowDeltas), len(req.ColumnDeltas)
	key := matrixKey(m.Assumptions(), req)
	if grid, ok := r.lookup(ctx, key); ok && sameShape(grid, rows, cols) {
		return grid, nil
	}

	start := time.Now()
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = make([]float64, cols)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, d1 := range req.RowDeltas {
		for j, d2 := range req.ColumnDeltas {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := m.Probe(req.Metric,
					investment.Override{Parameter: req.RowParameter, Value: req.RowBase + d1},
					investment.Override{Parameter: req.ColumnParameter, Value: req.ColumnBase + d2},
				)
				if err != nil {
					return fmt.Errorf("sensitivity matrix [%d][%d] (%s%+v, %s%+v): %w",
						i, j, req.RowParameter, d1, req.ColumnParameter, d2, err)
				}
				grid[i][j] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	probesTotal.WithLabelValues("matrix", req.Metric.String()).Add(float64(rows * cols))
	sweepDuration.WithLabelValues("matrix").Observe(time.Since(start).Seconds())

	r.store(ctx, key, grid)
	return grid, nil
}

func (r *Runner) lookup(ctx context.Context, key string) ([][]float64, bool) {
	if r.cache == nil {
		return nil, false
	}
	grid, ok := r.cache.Get(ctx, key)
	if ok {
		cacheRequestsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheRequestsTotal.WithLabelValues("miss").Inc()
	}
	return grid, ok
}

// store ignores cache write failures; the computed result is still valid.
func (r *Runner) store(ctx context.Context, key string, grid [][]float64) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Put(ctx, key, grid)
}

func sameShape(grid [][]float64, rows, cols int) bool {
	if len(grid) != rows {
		return false
	}
	for _, row := range grid {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// =============================================================================
// CACHE KEYS
// =============================================================================

// Keys use the shortest exact float representation, so two requests share a
// key only when every input is bit-for-bit equal.

func sweepKey(a investment.Assumptions, req SweepRequest) string {
	var b strings.Builder
	b.WriteString("sweep|")
	writeAssumptions(&b, a)
	fmt.Fprintf(&b, "|%s|%s|", req.Metric, req.Parameter)
	writeFloat(&b, req.Base)
	b.WriteByte('|')
	writeFloats(&b, req.Deltas)
	return b.String()
}

func matrixKey(a investment.Assumptions, req MatrixRequest) string {
	var b strings.Builder
	b.WriteString("matrix|")
	writeAssumptions(&b, a)
	fmt.Fprintf(&b, "|%s|%s|", req.Metric, req.RowParameter)
	writeFloat(&b, req.RowBase)
	b.WriteByte('|')
	writeFloats(&b, req.RowDeltas)
	fmt.Fprintf(&b, "|%s|", req.ColumnParameter)
	writeFloat(&b, req.ColumnBase)
	b.WriteByte('|')
	writeFloats(&b, req.ColumnDeltas)
	return b.String()
}

func writeAssumptions(b *strings.Builder, a investment.Assumptions) {
	for i, p := range investment.Parameters() {
		if i > 0 {
			b.WriteByte(',')
		}
		v, _ := a.Get(p)
		writeFloat(b, v)
	}
}

func writeFloats(b *strings.Builder, vs []float64) {
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(',')
		}
		writeFloat(b, v)
	}
}

func writeFloat(b *strings.Builder, v float64) {
	b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
}
