package investment

import (
	"fmt"
	"math"
)

// Model is an evaluated scenario: the assumptions together with every metric
// derived from them. A Model never changes after New returns.
type Model struct {
	assumptions Assumptions
	metrics     Metrics
	warnings    []error
}

// New validates the assumptions and computes all derived metrics eagerly.
//
// Order of evaluation (each step only reads earlier results):
//
//	initial_ebitda = initial_revenue × initial_ebitda_margin/100
//	entry_price    = initial_ebitda × entry_multiple
//	exit_revenue   = initial_revenue × (1 + revenue_growth/100)^holding_period
//	exit_ebitda    = exit_revenue × exit_ebitda_margin/100
//	exit_price     = exit_ebitda × exit_multiple
//	money_multiple = exit_price / entry_price
//	irr            = money_multiple^(1/holding_period) − 1
//
// Errors: ErrInvalidInput for holding_period <= 0 or non-finite inputs,
// ErrDivisionByZero when entry_price is zero. A negative money multiple with a
// fractional exponent is not an error: IRR is NaN and Warnings reports
// ErrUndefinedIRR.
func New(a Assumptions) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	m := &Model{assumptions: a}
	if err := m.calculate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the preconditions New relies on.
func (a Assumptions) Validate() error {
	if a.HoldingPeriod <= 0 {
		return fmt.Errorf("%w: holding_period must be positive, got %d", ErrInvalidInput, a.HoldingPeriod)
	}
	for _, p := range Parameters() {
		v := fields[p].get(a)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidInput, p, v)
		}
	}
	return nil
}

func (m *Model) calculate() error {
	a := m.assumptions
	years := float64(a.HoldingPeriod)

	// Entry
	m.metrics.InitialEBITDA = a.InitialRevenue * (a.InitialEBITDAMargin / 100)
	m.metrics.EntryPrice = m.metrics.InitialEBITDA * a.EntryMultiple

	// Exit
	m.metrics.ExitRevenue = a.InitialRevenue * math.Pow(1+a.RevenueGrowth/100, years)
	m.metrics.ExitEBITDA = m.metrics.ExitRevenue * (a.ExitEBITDAMargin / 100)
	m.metrics.ExitPrice = m.metrics.ExitEBITDA * a.ExitMultiple

	if math.IsInf(m.metrics.ExitPrice, 0) || math.IsNaN(m.metrics.ExitPrice) {
		return fmt.Errorf("%w: exit price overflows (growth %v%% over %d years)", ErrInvalidInput, a.RevenueGrowth, a.HoldingPeriod)
	}

	// Returns
	if m.metrics.EntryPrice == 0 {
		return fmt.Errorf("%w: entry price is zero (revenue %v, margin %v%%, multiple %vx)",
			ErrDivisionByZero, a.InitialRevenue, a.InitialEBITDAMargin, a.EntryMultiple)
	}
	m.metrics.MoneyMultiple = m.metrics.ExitPrice / m.metrics.EntryPrice
	if math.IsInf(m.metrics.MoneyMultiple, 0) {
		return fmt.Errorf("%w: money multiple overflows (entry price %v)", ErrDivisionByZero, m.metrics.EntryPrice)
	}

	// math.Pow yields NaN exactly when a negative base meets a non-integer exponent.
	m.metrics.IRR = math.Pow(m.metrics.MoneyMultiple, 1/years) - 1
	if math.IsNaN(m.metrics.IRR) {
		m.warnings = append(m.warnings, fmt.Errorf("%w: money multiple %.4f has no real %d-year root",
			ErrUndefinedIRR, m.metrics.MoneyMultiple, a.HoldingPeriod))
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

func (m *Model) Assumptions() Assumptions { return m.assumptions }
func (m *Model) Metrics() Metrics         { return m.metrics }

// Warnings lists non-fatal conditions found while evaluating, such as an
// undefined IRR. The returned slice is a copy.
func (m *Model) Warnings() []error {
	if len(m.warnings) == 0 {
		return nil
	}
	out := make([]error, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// IRRDefined reports whether IRR() is a real number.
func (m *Model) IRRDefined() bool { return !math.IsNaN(m.metrics.IRR) }

func (m *Model) InitialRevenue() float64      { return m.assumptions.InitialRevenue }
func (m *Model) InitialEBITDAMargin() float64 { return m.assumptions.InitialEBITDAMargin }
func (m *Model) InitialEBITDA() float64       { return m.metrics.InitialEBITDA }
func (m *Model) EntryMultiple() float64       { return m.assumptions.EntryMultiple }
func (m *Model) EntryPrice() float64          { return m.metrics.EntryPrice }
func (m *Model) RevenueGrowth() float64       { return m.assumptions.RevenueGrowth }
func (m *Model) HoldingPeriod() int           { return m.assumptions.HoldingPeriod }
func (m *Model) ExitRevenue() float64         { return m.metrics.ExitRevenue }
func (m *Model) ExitEBITDAMargin() float64    { return m.assumptions.ExitEBITDAMargin }
func (m *Model) ExitEBITDA() float64          { return m.metrics.ExitEBITDA }
func (m *Model) ExitMultiple() float64        { return m.assumptions.ExitMultiple }
func (m *Model) ExitPrice() float64           { return m.metrics.ExitPrice }
func (m *Model) MoneyMultiple() float64       { return m.metrics.MoneyMultiple }

// IRR is the annualised return as a decimal fraction (0.2183 for 21.83%).
func (m *Model) IRR() float64 { return m.metrics.IRR }

// Metric extracts a sensitivity target. IRR is reported in percent, the money
// multiple as-is.
func (m *Model) Metric(target Metric) (float64, error) {
	switch target {
	case MetricIRR:
		return m.metrics.IRR * 100, nil
	case MetricMoneyMultiple:
		return m.metrics.MoneyMultiple, nil
	}
	return 0, fmt.Errorf("%w: unknown metric %d", ErrInvalidInput, int(target))
}

// =============================================================================
// GROUPED VIEWS
// =============================================================================

// EntryMetrics returns the entry valuation rows in display order.
func (m *Model) EntryMetrics() []ExportRow {
	return []ExportRow{
		{Name: "Initial Revenue", Value: m.InitialRevenue(), Kind: KindCurrency},
		{Name: "Initial EBITDA Margin", Value: m.InitialEBITDAMargin(), Kind: KindPercent},
		{Name: "Initial EBITDA", Value: m.InitialEBITDA(), Kind: KindCurrency},
		{Name: "Entry Multiple", Value: m.EntryMultiple(), Kind: KindMultiple},
		{Name: "Entry Price", Value: m.EntryPrice(), Kind: KindCurrency},
	}
}

// ExitMetrics returns the exit valuation rows in display order.
func (m *Model) ExitMetrics() []ExportRow {
	return []ExportRow{
		{Name: "Exit Revenue", Value: m.ExitRevenue(), Kind: KindCurrency},
		{Name: "Exit EBITDA Margin", Value: m.ExitEBITDAMargin(), Kind: KindPercent},
		{Name: "Exit EBITDA", Value: m.ExitEBITDA(), Kind: KindCurrency},
		{Name: "Exit Multiple", Value: m.ExitMultiple(), Kind: KindMultiple},
		{Name: "Exit Price", Value: m.ExitPrice(), Kind: KindCurrency},
	}
}

// ReturnMetrics returns money multiple and IRR (in percent).
func (m *Model) ReturnMetrics() []ExportRow {
	return []ExportRow{
		{Name: "Money Multiple", Value: m.MoneyMultiple(), Kind: KindMultiple},
		{Name: "IRR", Value: m.IRR() * 100, Kind: KindPercent},
	}
}

// ExportRows is the flat list of all fourteen inputs and results, in the
// order the tabular export uses. IRR is expressed in percent.
func (m *Model) ExportRows() []ExportRow {
	return []ExportRow{
		{Name: "Initial Revenue", Value: m.InitialRevenue(), Kind: KindCurrency},
		{Name: "Initial EBITDA Margin", Value: m.InitialEBITDAMargin(), Kind: KindPercent},
		{Name: "Initial EBITDA", Value: m.InitialEBITDA(), Kind: KindCurrency},
		{Name: "Entry Multiple", Value: m.EntryMultiple(), Kind: KindMultiple},
		{Name: "Entry Price", Value: m.EntryPrice(), Kind: KindCurrency},
		{Name: "Revenue Growth", Value: m.RevenueGrowth(), Kind: KindPercent},
		{Name: "Holding Period", Value: float64(m.HoldingPeriod()), Kind: KindYears},
		{Name: "Exit Revenue", Value: m.ExitRevenue(), Kind: KindCurrency},
		{Name: "Exit EBITDA Margin", Value: m.ExitEBITDAMargin(), Kind: KindPercent},
		{Name: "Exit EBITDA", Value: m.ExitEBITDA(), Kind: KindCurrency},
		{Name: "Exit Multiple", Value: m.ExitMultiple(), Kind: KindMultiple},
		{Name: "Exit Price", Value: m.ExitPrice(), Kind: KindCurrency},
		{Name: "Money Multiple", Value: m.MoneyMultiple(), Kind: KindMultiple},
		{Name: "IRR", Value: m.IRR() * 100, Kind: KindPercent},
	}
}

// =============================================================================
// CHART INPUTS
// =============================================================================

// RevenueProgression returns revenue for year 0 through the holding period.
//
// FORMULA: revenue(year) = initial_revenue × (1 + revenue_growth/100)^year
func (m *Model) RevenueProgression() []YearRevenue {
	a := m.assumptions
	out := make([]YearRevenue, 0, a.HoldingPeriod+1)
	for year := 0; year <= a.HoldingPeriod; year++ {
		out = append(out, YearRevenue{
			Year:    year,
			Revenue: a.InitialRevenue * math.Pow(1+a.RevenueGrowth/100, float64(year)),
		})
	}
	return out
}

// ValueBridge splits value creation into growth, margin and multiple effects.
//
// FORMULA:
//
//	revenue_growth     = exit_revenue × initial_margin/100 × entry_multiple − entry_price
//	margin_improvement = exit_revenue × (exit_margin − initial_margin)/100 × entry_multiple
//	multiple_expansion = exit_ebitda × (exit_multiple − entry_multiple)
//
// Entry value plus the three components equals the exit price.
func (m *Model) ValueBridge() ValueBridge {
	a := m.assumptions
	b := ValueBridge{
		EntryValue:        m.metrics.EntryPrice,
		RevenueGrowth:     m.metrics.ExitRevenue*(a.InitialEBITDAMargin/100)*a.EntryMultiple - m.metrics.EntryPrice,
		MarginImprovement: m.metrics.ExitRevenue * ((a.ExitEBITDAMargin - a.InitialEBITDAMargin) / 100) * a.EntryMultiple,
		MultipleExpansion: m.metrics.ExitEBITDA * (a.ExitMultiple - a.EntryMultiple),
	}
	b.ExitValue = b.EntryValue + b.RevenueGrowth + b.MarginImprovement + b.MultipleExpansion
	return b
}
