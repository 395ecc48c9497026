package model

import (
	"math"

	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/scenario"
	"pe_modeller/pkg/core/sensitivity"
)

// JSON has no NaN, so undefined values (an IRR with no real root) are sent
// as null.

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullableSlice(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = nullable(v)
	}
	return out
}

func nullableGrid(grid [][]float64) [][]*float64 {
	out := make([][]*float64, len(grid))
	for i, row := range grid {
		out[i] = nullableSlice(row)
	}
	return out
}

type metricsDTO struct {
	InitialEBITDA float64  `json:"initial_ebitda"`
	EntryPrice    float64  `json:"entry_price"`
	ExitRevenue   float64  `json:"exit_revenue"`
	ExitEBITDA    float64  `json:"exit_ebitda"`
	ExitPrice     float64  `json:"exit_price"`
	MoneyMultiple float64  `json:"money_multiple"`
	IRR           *float64 `json:"irr"`
}

type rowDTO struct {
	Name      string               `json:"name"`
	Value     *float64             `json:"value"`
	Kind      investment.ValueKind `json:"kind"`
	Formatted string               `json:"formatted"`
}

func rows(src []investment.ExportRow, symbol string) []rowDTO {
	out := make([]rowDTO, len(src))
	for i, r := range src {
		out[i] = rowDTO{Name: r.Name, Value: nullable(r.Value), Kind: r.Kind, Formatted: format.Value(r, symbol)}
	}
	return out
}

type evaluateResponse struct {
	RunID       string                   `json:"run_id"`
	Currency    string                   `json:"currency"`
	Symbol      string                   `json:"symbol"`
	Assumptions investment.Assumptions   `json:"assumptions"`
	Metrics     metricsDTO               `json:"metrics"`
	Entry       []rowDTO                 `json:"entry"`
	Exit        []rowDTO                 `json:"exit"`
	Returns     []rowDTO                 `json:"returns"`
	Progression []investment.YearRevenue `json:"revenue_progression"`
	Bridge      investment.ValueBridge   `json:"value_bridge"`
	Warnings    []string                 `json:"warnings"`
}

func newEvaluateResponse(runID string, in scenario.Input, m *investment.Model) evaluateResponse {
	met := m.Metrics()
	warnings := make([]string, 0)
	for _, w := range m.Warnings() {
		warnings = append(warnings, w.Error())
	}
	sym := in.Symbol()
	return evaluateResponse{
		RunID:       runID,
		Currency:    in.CurrencyCode(),
		Symbol:      sym,
		Assumptions: m.Assumptions(),
		Metrics: metricsDTO{
			InitialEBITDA: met.InitialEBITDA,
			EntryPrice:    met.EntryPrice,
			ExitRevenue:   met.ExitRevenue,
			ExitEBITDA:    met.ExitEBITDA,
			ExitPrice:     met.ExitPrice,
			MoneyMultiple: met.MoneyMultiple,
			IRR:           nullable(met.IRR),
		},
		Entry:       rows(m.EntryMetrics(), sym),
		Exit:        rows(m.ExitMetrics(), sym),
		Returns:     rows(m.ReturnMetrics(), sym),
		Progression: m.RevenueProgression(),
		Bridge:      m.ValueBridge(),
		Warnings:    warnings,
	}
}

type sensitivityResponse struct {
	Parameter investment.Parameter `json:"parameter"`
	Metric    investment.Metric    `json:"metric"`
	Base      float64              `json:"base"`
	Deltas    []float64            `json:"deltas"`
	Labels    []string             `json:"labels"`
	Values    []*float64           `json:"values"`
}

type matrixResponse struct {
	Metric          investment.Metric    `json:"metric"`
	RowParameter    investment.Parameter `json:"row_parameter"`
	ColumnParameter investment.Parameter `json:"column_parameter"`
	RowLabels       []string             `json:"row_labels"`
	ColumnLabels    []string             `json:"column_labels"`
	Values          [][]*float64         `json:"values"`
}

type barDTO struct {
	Parameter investment.Parameter `json:"parameter"`
	Label     string               `json:"label"`
	Low       *float64             `json:"low"`
	High      *float64             `json:"high"`
	LowDiff   *float64             `json:"low_diff"`
	HighDiff  *float64             `json:"high_diff"`
	Spread    *float64             `json:"spread"`
}

type tornadoResponse struct {
	Metric investment.Metric `json:"metric"`
	Base   *float64          `json:"base"`
	Bars   []barDTO          `json:"bars"`
}

func newTornadoResponse(t sensitivity.TornadoResult) tornadoResponse {
	bars := make([]barDTO, len(t.Bars))
	for i, b := range t.Bars {
		bars[i] = barDTO{
			Parameter: b.Parameter,
			Label:     b.Label,
			Low:       nullable(b.Low),
			High:      nullable(b.High),
			LowDiff:   nullable(b.LowDiff),
			HighDiff:  nullable(b.HighDiff),
			Spread:    nullable(b.Spread),
		}
	}
	return tornadoResponse{Metric: t.Metric, Base: nullable(t.Base), Bars: bars}
}

type defaultsResponse struct {
	Scenario   scenario.Input      `json:"scenario"`
	Swings     []sensitivity.Swing `json:"swings"`
	Grid       sensitivity.Grid    `json:"grid"`
	Currencies []string            `json:"currencies"`
	Parameters []string            `json:"parameters"`
	Metrics    []string            `json:"metrics"`
}
