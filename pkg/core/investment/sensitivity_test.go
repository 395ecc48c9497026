package investment

import (
	"errors"
	"math"
	"testing"
)

func TestSensitivity_LengthAndOrder(t *testing.T) {
	m := mustNew(t, baseline())
	deltas := []float64{-4, -2, 0, 2, 4}

	got, err := m.Sensitivity(ParamRevenueGrowth, m.RevenueGrowth(), deltas, MetricIRR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(deltas) {
		t.Fatalf("expected %d results, got %d", len(deltas), len(got))
	}

	for i, d := range deltas {
		a := baseline()
		a.RevenueGrowth += d
		want := mustNew(t, a).IRR() * 100
		if got[i] != want {
			t.Errorf("delta %v: expected %v, got %v", d, want, got[i])
		}
	}

	// Faster growth must raise IRR monotonically.
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("IRR not increasing at %d: %v <= %v", i, got[i], got[i-1])
		}
	}
}

func TestSensitivity_ZeroDeltaIdentity(t *testing.T) {
	m := mustNew(t, baseline())

	for _, p := range Parameters() {
		base, err := m.Assumptions().Get(p)
		if err != nil {
			t.Fatalf("Get(%s): %v", p, err)
		}

		irr, err := m.Sensitivity(p, base, []float64{0}, MetricIRR)
		if err != nil {
			t.Fatalf("%s irr: %v", p, err)
		}
		if irr[0] != m.IRR()*100 {
			t.Errorf("%s: expected IRR %v, got %v", p, m.IRR()*100, irr[0])
		}

		mm, err := m.Sensitivity(p, base, []float64{0}, MetricMoneyMultiple)
		if err != nil {
			t.Fatalf("%s money multiple: %v", p, err)
		}
		if mm[0] != m.MoneyMultiple() {
			t.Errorf("%s: expected money multiple %v, got %v", p, m.MoneyMultiple(), mm[0])
		}
	}
}

func TestSensitivity_CallerSuppliedBase(t *testing.T) {
	m := mustNew(t, baseline())

	got, err := m.Sensitivity(ParamExitMultiple, 12, []float64{0, 1}, MetricMoneyMultiple)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := baseline()
	a.ExitMultiple = 12
	if want := mustNew(t, a).MoneyMultiple(); got[0] != want {
		t.Errorf("expected %v at base 12, got %v", want, got[0])
	}
	a.ExitMultiple = 13
	if want := mustNew(t, a).MoneyMultiple(); got[1] != want {
		t.Errorf("expected %v at base 13, got %v", want, got[1])
	}
}

func TestSensitivity_DoesNotMutate(t *testing.T) {
	m := mustNew(t, baseline())
	before := m.Metrics()

	if _, err := m.Sensitivity(ParamEntryMultiple, 8, []float64{-2, 2}, MetricIRR); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Metrics() != before || m.Assumptions() != baseline() {
		t.Error("sensitivity mutated the receiver")
	}
}

func TestSensitivity_EmptyDeltas(t *testing.T) {
	m := mustNew(t, baseline())
	got, err := m.Sensitivity(ParamRevenueGrowth, 10, nil, MetricIRR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestSensitivity_Errors(t *testing.T) {
	m := mustNew(t, baseline())

	if _, err := m.Sensitivity(ParamHoldingPeriod, 1, []float64{-1}, MetricIRR); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("holding period 0: expected ErrInvalidInput, got %v", err)
	}
	if _, err := m.Sensitivity(ParamHoldingPeriod, 5, []float64{0.5}, MetricIRR); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("fractional holding period: expected ErrInvalidInput, got %v", err)
	}
	if _, err := m.Sensitivity(ParamEntryMultiple, 8, []float64{-8}, MetricMoneyMultiple); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("zero entry multiple: expected ErrDivisionByZero, got %v", err)
	}
	if _, err := m.Sensitivity(Parameter(99), 1, []float64{0}, MetricIRR); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown parameter: expected ErrInvalidInput, got %v", err)
	}
	if _, err := m.Sensitivity(ParamExitMultiple, 10, []float64{0}, Metric(0)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown metric: expected ErrInvalidInput, got %v", err)
	}
}

func TestSensitivity_UndefinedIRRIsNaN(t *testing.T) {
	m := mustNew(t, baseline())
	got, err := m.Sensitivity(ParamExitEBITDAMargin, 20, []float64{-25, 0}, MetricIRR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(got[0]) {
		t.Errorf("expected NaN for negative exit margin, got %v", got[0])
	}
	if math.IsNaN(got[1]) {
		t.Errorf("expected defined IRR at baseline")
	}
}

func TestSensitivityMatrix_ShapeAndOrder(t *testing.T) {
	m := mustNew(t, baseline())
	growth := []float64{-4, -2, 0, 2, 4}
	multiple := []float64{-2, -1, 0, 1}

	grid, err := m.SensitivityMatrix(
		ParamRevenueGrowth, 10, growth,
		ParamExitMultiple, 10, multiple,
		MetricMoneyMultiple,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid) != len(growth) {
		t.Fatalf("expected %d rows, got %d", len(growth), len(grid))
	}
	for i, row := range grid {
		if len(row) != len(multiple) {
			t.Fatalf("row %d: expected %d columns, got %d", i, len(multiple), len(row))
		}
		for j, v := range row {
			a := baseline()
			a.RevenueGrowth = 10 + growth[i]
			a.ExitMultiple = 10 + multiple[j]
			if want := mustNew(t, a).MoneyMultiple(); v != want {
				t.Errorf("[%d][%d]: expected %v, got %v", i, j, want, v)
			}
		}
	}

	// Centre cell reproduces the baseline.
	if grid[2][2] != m.MoneyMultiple() {
		t.Errorf("centre cell: expected %v, got %v", m.MoneyMultiple(), grid[2][2])
	}
}

func TestSensitivityMatrix_SameParameterLastWriteWins(t *testing.T) {
	m := mustNew(t, baseline())
	grid, err := m.SensitivityMatrix(
		ParamExitMultiple, 10, []float64{-5, 5},
		ParamExitMultiple, 10, []float64{1},
		MetricMoneyMultiple,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := baseline()
	a.ExitMultiple = 11
	want := mustNew(t, a).MoneyMultiple()
	for i := range grid {
		if grid[i][0] != want {
			t.Errorf("row %d: expected %v, got %v", i, want, grid[i][0])
		}
	}
}

func TestSensitivityMatrix_Empty(t *testing.T) {
	m := mustNew(t, baseline())
	grid, err := m.SensitivityMatrix(ParamRevenueGrowth, 10, []float64{1, 2}, ParamExitMultiple, 10, nil, MetricIRR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid) != 2 || len(grid[0]) != 0 || len(grid[1]) != 0 {
		t.Errorf("expected 2x0 grid, got %v", grid)
	}
}

func TestParseParameter(t *testing.T) {
	for _, p := range Parameters() {
		parsed, err := ParseParameter(p.String())
		if err != nil || parsed != p {
			t.Errorf("ParseParameter(%q) = %v, %v", p.String(), parsed, err)
		}
	}
	if _, err := ParseParameter("ebitda"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	var p Parameter
	if err := p.UnmarshalText([]byte(" Exit_Multiple ")); err != nil || p != ParamExitMultiple {
		t.Errorf("UnmarshalText: got %v, %v", p, err)
	}
}

func TestParseMetric(t *testing.T) {
	cases := map[string]Metric{"irr": MetricIRR, "IRR": MetricIRR, "money_multiple": MetricMoneyMultiple, "moic": MetricMoneyMultiple}
	for in, want := range cases {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMetric("npv"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAssumptionsApply(t *testing.T) {
	a := baseline()
	out, err := a.Apply(
		Override{Parameter: ParamHoldingPeriod, Value: 7},
		Override{Parameter: ParamExitMultiple, Value: 12},
		Override{Parameter: ParamExitMultiple, Value: 9},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.HoldingPeriod != 7 || out.ExitMultiple != 9 {
		t.Errorf("unexpected result: %+v", out)
	}
	if a != baseline() {
		t.Error("Apply mutated the receiver")
	}
}
