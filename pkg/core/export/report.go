package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/sensitivity"
)

// ReportOptions selects the optional report sections.
type ReportOptions struct {
	Title    string
	Symbol   string
	Heatmaps []sensitivity.Heatmap
	Tornado  *sensitivity.TornadoResult
}

// Markdown renders the full analysis as GitHub-flavoured Markdown.
func Markdown(m *investment.Model, opts ReportOptions) string {
	title := opts.Title
	if title == "" {
		title = "Private Equity Investment Analysis"
	}
	sym := opts.Symbol

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	section(&b, "Entry Valuation", m.EntryMetrics(), sym)
	section(&b, "Exit Valuation", m.ExitMetrics(), sym)
	section(&b, "Returns", m.ReturnMetrics(), sym)

	if warnings := m.Warnings(); len(warnings) > 0 {
		b.WriteString("> **Warnings**\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "> - %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Revenue Progression\n\n| Year | Revenue |\n|---:|---:|\n")
	for _, p := range m.RevenueProgression() {
		fmt.Fprintf(&b, "| %d | %s |\n", p.Year, format.Currency(p.Revenue, sym))
	}
	b.WriteString("\n")

	bridge := m.ValueBridge()
	b.WriteString("## Value Creation Bridge\n\n| Step | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Entry Value | %s |\n", format.Currency(bridge.EntryValue, sym))
	for _, s := range bridge.Components() {
		fmt.Fprintf(&b, "| %s | %s |\n", s.Label, format.Signed(s.Value, sym))
	}
	fmt.Fprintf(&b, "| Exit Value | %s |\n\n", format.Currency(bridge.ExitValue, sym))

	for _, h := range opts.Heatmaps {
		heatmap(&b, h)
	}
	if opts.Tornado != nil {
		tornado(&b, *opts.Tornado)
	}

	return b.String()
}

func section(b *strings.Builder, heading string, rows []investment.ExportRow, sym string) {
	fmt.Fprintf(b, "## %s\n\n| Metric | Value |\n|---|---:|\n", heading)
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r.Name, format.Value(r, sym))
	}
	b.WriteString("\n")
}

func heatmap(b *strings.Builder, h sensitivity.Heatmap) {
	fmt.Fprintf(b, "## %s Sensitivity: %s vs %s\n\n", h.Metric.Label(), h.RowParameter.Label(), h.ColParameter.Label())

	fmt.Fprintf(b, "| %s \\ %s |", h.RowParameter.Label(), h.ColParameter.Label())
	for _, l := range h.ColLabels {
		fmt.Fprintf(b, " %s |", l)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---:|", len(h.ColLabels)))
	b.WriteString("\n")

	for i, row := range h.Values {
		label := ""
		if i < len(h.RowLabels) {
			label = h.RowLabels[i]
		}
		fmt.Fprintf(b, "| %s |", label)
		for _, v := range row {
			fmt.Fprintf(b, " %s |", metricValue(h.Metric, v))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func tornado(b *strings.Builder, t sensitivity.TornadoResult) {
	fmt.Fprintf(b, "## Parameter Impact on %s\n\nBase: %s\n\n", t.Metric.Label(), metricValue(t.Metric, t.Base))
	b.WriteString("| Parameter | Low | High | Low Δ | High Δ |\n|---|---:|---:|---:|---:|\n")
	for _, bar := range t.Bars {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", bar.Label,
			metricValue(t.Metric, bar.Low), metricValue(t.Metric, bar.High),
			metricValue(t.Metric, bar.LowDiff), metricValue(t.Metric, bar.HighDiff))
	}
	b.WriteString("\n")
}

func metricValue(metric investment.Metric, v float64) string {
	if metric == investment.MetricIRR {
		return format.Percent(v, 1)
	}
	return format.Multiple(v, 2)
}

// HTML renders Markdown to an HTML fragment. Tables get the "pe-table" class
// and cells holding negative numbers get "negative", so a stylesheet can
// colour losses without parsing values.
func HTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered html: %w", err)
	}
	doc.Find("table").AddClass("pe-table")
	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if isNegative(cell.Text()) {
			cell.AddClass("negative")
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialise html: %w", err)
	}
	return out, nil
}

// Document wraps an HTML fragment in a minimal standalone page.
func Document(title, fragment string) string {
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>" + html.EscapeString(title) +
		"</title></head><body>\n" + fragment + "</body></html>\n"
}

func isNegative(text string) bool {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "-") || len(s) < 2 {
		return false
	}
	return strings.ContainsAny(s[1:], "0123456789")
}
