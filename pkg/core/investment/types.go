// Package investment implements the single buyout-and-exit valuation model:
// entry and exit enterprise values from revenue, EBITDA margin and EV/EBITDA
// multiples, the resulting money multiple and IRR, and the what-if sweeps that
// re-evaluate the model under perturbed assumptions.
//
// Every Model is immutable. Perturbations never touch the receiver; each probe
// builds an independent Model from a copy of the assumptions.
package investment

// =============================================================================
// INPUTS
// =============================================================================

// Assumptions are the seven scalar inputs of a scenario.
// Percentages are stored as plain percentages (15.0 means 15%) and divided by
// 100 only at the point of use.
type Assumptions struct {
	InitialRevenue      float64 `json:"initial_revenue"`       // currency units at entry
	InitialEBITDAMargin float64 `json:"initial_ebitda_margin"` // % of revenue
	EntryMultiple       float64 `json:"entry_multiple"`        // EV / EBITDA at entry
	RevenueGrowth       float64 `json:"revenue_growth"`        // annual compound %, may be negative
	HoldingPeriod       int     `json:"holding_period"`        // years
	ExitEBITDAMargin    float64 `json:"exit_ebitda_margin"`    // % of revenue at exit
	ExitMultiple        float64 `json:"exit_multiple"`         // EV / EBITDA at exit
}

// =============================================================================
// OUTPUTS
// =============================================================================

// Metrics are fully determined by Assumptions.
type Metrics struct {
	InitialEBITDA float64 `json:"initial_ebitda"`
	EntryPrice    float64 `json:"entry_price"`
	ExitRevenue   float64 `json:"exit_revenue"`
	ExitEBITDA    float64 `json:"exit_ebitda"`
	ExitPrice     float64 `json:"exit_price"`
	MoneyMultiple float64 `json:"money_multiple"`
	IRR           float64 `json:"irr"` // decimal fraction, NaN when undefined
}

// YearRevenue is one point of the revenue progression.
type YearRevenue struct {
	Year    int     `json:"year"`
	Revenue float64 `json:"revenue"`
}

// ValueBridge decomposes the move from entry price to exit price.
type ValueBridge struct {
	EntryValue        float64 `json:"entry_value"`
	RevenueGrowth     float64 `json:"revenue_growth"`
	MarginImprovement float64 `json:"margin_improvement"`
	MultipleExpansion float64 `json:"multiple_expansion"`
	ExitValue         float64 `json:"exit_value"`
}

// Components returns the three bridge steps in display order.
func (b ValueBridge) Components() []BridgeStep {
	return []BridgeStep{
		{Label: "Revenue Growth", Value: b.RevenueGrowth},
		{Label: "Margin Improvement", Value: b.MarginImprovement},
		{Label: "Multiple Expansion", Value: b.MultipleExpansion},
	}
}

// BridgeStep is a labelled value-bridge component.
type BridgeStep struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ValueKind tells presentation code how a raw value should be rendered.
type ValueKind string

const (
	KindCurrency ValueKind = "currency"
	KindPercent  ValueKind = "percent"
	KindMultiple ValueKind = "multiple"
	KindYears    ValueKind = "years"
)

// ExportRow is one (name, raw value) pair of the flat export list.
type ExportRow struct {
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Kind  ValueKind `json:"kind"`
}
