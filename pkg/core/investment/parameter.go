package investment

import (
	"fmt"
	"math"
	"strings"
)

// Parameter identifies one of the seven assumption fields.
type Parameter int

const (
	ParamInitialRevenue Parameter = iota + 1
	ParamInitialEBITDAMargin
	ParamEntryMultiple
	ParamRevenueGrowth
	ParamHoldingPeriod
	ParamExitEBITDAMargin
	ParamExitMultiple
)

type field struct {
	name  string
	label string
	kind  ValueKind
	get   func(Assumptions) float64
	set   func(*Assumptions, float64) error
}

var fields = [...]field{
	ParamInitialRevenue: {
		name: "initial_revenue", label: "Initial Revenue", kind: KindCurrency,
		get: func(a Assumptions) float64 { return a.InitialRevenue },
		set: func(a *Assumptions, v float64) error { a.InitialRevenue = v; return nil },
	},
	ParamInitialEBITDAMargin: {
		name: "initial_ebitda_margin", label: "Initial EBITDA Margin", kind: KindPercent,
		get: func(a Assumptions) float64 { return a.InitialEBITDAMargin },
		set: func(a *Assumptions, v float64) error { a.InitialEBITDAMargin = v; return nil },
	},
	ParamEntryMultiple: {
		name: "entry_multiple", label: "Entry Multiple", kind: KindMultiple,
		get: func(a Assumptions) float64 { return a.EntryMultiple },
		set: func(a *Assumptions, v float64) error { a.EntryMultiple = v; return nil },
	},
	ParamRevenueGrowth: {
		name: "revenue_growth", label: "Revenue Growth", kind: KindPercent,
		get: func(a Assumptions) float64 { return a.RevenueGrowth },
		set: func(a *Assumptions, v float64) error { a.RevenueGrowth = v; return nil },
	},
	ParamHoldingPeriod: {
		name: "holding_period", label: "Holding Period", kind: KindYears,
		get: func(a Assumptions) float64 { return float64(a.HoldingPeriod) },
		set: func(a *Assumptions, v float64) error {
			if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
				return fmt.Errorf("%w: holding_period must be a whole number of years, got %v", ErrInvalidInput, v)
			}
			a.HoldingPeriod = int(v)
			return nil
		},
	},
	ParamExitEBITDAMargin: {
		name: "exit_ebitda_margin", label: "Exit EBITDA Margin", kind: KindPercent,
		get: func(a Assumptions) float64 { return a.ExitEBITDAMargin },
		set: func(a *Assumptions, v float64) error { a.ExitEBITDAMargin = v; return nil },
	},
	ParamExitMultiple: {
		name: "exit_multiple", label: "Exit Multiple", kind: KindMultiple,
		get: func(a Assumptions) float64 { return a.ExitMultiple },
		set: func(a *Assumptions, v float64) error { a.ExitMultiple = v; return nil },
	},
}

// Parameters returns all assumption fields in declaration order.
func Parameters() []Parameter {
	return []Parameter{
		ParamInitialRevenue,
		ParamInitialEBITDAMargin,
		ParamEntryMultiple,
		ParamRevenueGrowth,
		ParamHoldingPeriod,
		ParamExitEBITDAMargin,
		ParamExitMultiple,
	}
}

// Valid reports whether p names a known field.
func (p Parameter) Valid() bool {
	return p >= ParamInitialRevenue && p <= ParamExitMultiple
}

// String returns the snake_case field name, e.g. "revenue_growth".
func (p Parameter) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Parameter(%d)", int(p))
	}
	return fields[p].name
}

// Label returns the display name, e.g. "Revenue Growth".
func (p Parameter) Label() string {
	if !p.Valid() {
		return p.String()
	}
	return fields[p].label
}

// Kind returns how values of this field are displayed.
func (p Parameter) Kind() ValueKind {
	if !p.Valid() {
		return ""
	}
	return fields[p].kind
}

// MarshalText implements encoding.TextMarshaler.
func (p Parameter) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: unknown parameter %d", ErrInvalidInput, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Parameter) UnmarshalText(text []byte) error {
	parsed, err := ParseParameter(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseParameter resolves a field name such as "exit_multiple".
func ParseParameter(name string) (Parameter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Parameters() {
		if fields[p].name == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown parameter %q", ErrInvalidInput, name)
}

// Get reads the field identified by p.
func (a Assumptions) Get(p Parameter) (float64, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: unknown parameter %d", ErrInvalidInput, int(p))
	}
	return fields[p].get(a), nil
}

// With returns a copy of a with field p set to v. The receiver is not modified.
func (a Assumptions) With(p Parameter, v float64) (Assumptions, error) {
	if !p.Valid() {
		return a, fmt.Errorf("%w: unknown parameter %d", ErrInvalidInput, int(p))
	}
	out := a
	if err := fields[p].set(&out, v); err != nil {
		return a, err
	}
	return out, nil
}

// Override is a single field assignment applied to a copy of the assumptions.
type Override struct {
	Parameter Parameter
	Value     float64
}

// Apply returns a copy of a with every override applied in order, so a later
// override of the same field wins.
func (a Assumptions) Apply(overrides ...Override) (Assumptions, error) {
	out := a
	for _, o := range overrides {
		next, err := out.With(o.Parameter, o.Value)
		if err != nil {
			return a, err
		}
		out = next
	}
	return out, nil
}

// =============================================================================
// TARGET METRICS
// =============================================================================

// Metric selects the output a sensitivity probe reports.
type Metric int

const (
	MetricIRR Metric = iota + 1
	MetricMoneyMultiple
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m == MetricIRR || m == MetricMoneyMultiple
}

func (m Metric) String() string {
	switch m {
	case MetricIRR:
		return "irr"
	case MetricMoneyMultiple:
		return "money_multiple"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// Label returns the display name used in tables and charts.
func (m Metric) Label() string {
	switch m {
	case MetricIRR:
		return "IRR (%)"
	case MetricMoneyMultiple:
		return "Money Multiple"
	}
	return m.String()
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown metric %d", ErrInvalidInput, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMetric resolves "irr" or "money_multiple".
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "irr":
		return MetricIRR, nil
	case "money_multiple", "moic", "mom":
		return MetricMoneyMultiple, nil
	}
	return 0, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, name)
}
