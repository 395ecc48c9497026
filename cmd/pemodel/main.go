package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"pe_modeller/pkg/config"
	"pe_modeller/pkg/core/export"
	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/scenario"
	"pe_modeller/pkg/core/sensitivity"
)

const usage = `Usage: pemodel <command> [flags]

Commands:
  evaluate   print entry, exit and return metrics
  sweep      vary one parameter and print the target metric
  matrix     vary two parameters and print a heatmap
  tornado    rank parameters by their impact on the target metric
  export     write the analysis as csv, xlsx, md or html

Run "pemodel <command> -h" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "evaluate":
		err = runEvaluate(args)
	case "sweep":
		err = runSweep(ctx, args)
	case "matrix":
		err = runMatrix(ctx, args)
	case "tornado":
		err = runTornado(ctx, args)
	case "export":
		err = runExport(ctx, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func runEvaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	path := fs.String("scenario", "", "scenario file (yaml, json or hjson); defaults when empty")
	_ = fs.Parse(args)

	in, m, err := loadModel(*path)
	if err != nil {
		return err
	}
	sym := in.Symbol()

	fmt.Println("=== PE Investment Analysis ===")
	fmt.Printf("Currency: %s\n", in.CurrencyCode())
	printRows("Entry Valuation", m.EntryMetrics(), sym)
	printRows("Exit Valuation", m.ExitMetrics(), sym)
	printRows("Returns", m.ReturnMetrics(), sym)

	for _, w := range m.Warnings() {
		fmt.Printf("⚠️  %v\n", w)
	}

	fmt.Println("\n--- Revenue Progression ---")
	fmt.Printf("%-6s | %18s\n", "Year", "Revenue")
	for _, p := range m.RevenueProgression() {
		fmt.Printf("%-6d | %18s\n", p.Year, format.Currency(p.Revenue, sym))
	}

	bridge := m.ValueBridge()
	fmt.Println("\n--- Value Creation Bridge ---")
	fmt.Printf("%-20s | %18s\n", "Entry Value", format.Currency(bridge.EntryValue, sym))
	for _, s := range bridge.Components() {
		fmt.Printf("%-20s | %18s\n", s.Label, format.Signed(s.Value, sym))
	}
	fmt.Printf("%-20s | %18s\n", "Exit Value", format.Currency(bridge.ExitValue, sym))
	return nil
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	path := fs.String("scenario", "", "scenario file; defaults when empty")
	param := fs.String("parameter", "revenue_growth", "parameter to vary")
	deltas := fs.String("deltas", "-4,-2,0,2,4", "comma-separated deltas")
	metric := fs.String("metric", "irr", "target metric (irr or money_multiple)")
	workers := fs.Int("workers", 0, "concurrent probes; 0 uses GOMAXPROCS")
	_ = fs.Parse(args)

	_, m, err := loadModel(*path)
	if err != nil {
		return err
	}
	p, err := investment.ParseParameter(*param)
	if err != nil {
		return err
	}
	target, err := investment.ParseMetric(*metric)
	if err != nil {
		return err
	}
	ds, err := parseDeltas(*deltas)
	if err != nil {
		return err
	}

	base, _ := m.Assumptions().Get(p)
	values, err := sensitivity.NewRunner(*workers, nil).Sweep(ctx, m, sensitivity.SweepRequest{
		Parameter: p,
		Base:      base,
		Deltas:    ds,
		Metric:    target,
	})
	if err != nil {
		return err
	}

	fmt.Printf("=== %s vs %s ===\n", target.Label(), p.Label())
	fmt.Printf("%-12s | %-14s | %12s\n", "Delta", p.Label(), target.Label())
	labels := sensitivity.Labels(p, base, ds)
	for i, v := range values {
		fmt.Printf("%-12s | %-14s | %12s\n", strconv.FormatFloat(ds[i], 'f', -1, 64), labels[i], metricText(target, v))
	}
	return nil
}

func runMatrix(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("matrix", flag.ExitOnError)
	path := fs.String("scenario", "", "scenario file; defaults when empty")
	sweepsFile := fs.String("sweeps", "config/sweeps.yaml", "sweep defaults file")
	rowParam := fs.String("row", "", "row parameter; configured grid when empty")
	rowDeltas := fs.String("row-deltas", "", "comma-separated row deltas")
	colParam := fs.String("col", "", "column parameter; configured grid when empty")
	colDeltas := fs.String("col-deltas", "", "comma-separated column deltas")
	metric := fs.String("metric", "irr", "target metric (irr or money_multiple)")
	workers := fs.Int("workers", 0, "concurrent probes; 0 uses GOMAXPROCS")
	_ = fs.Parse(args)

	_, m, err := loadModel(*path)
	if err != nil {
		return err
	}
	sweeps, err := config.LoadSweeps(*sweepsFile)
	if err != nil {
		return err
	}
	target, err := investment.ParseMetric(*metric)
	if err != nil {
		return err
	}

	grid := sweeps.Grid
	if grid.Row, err = overrideAxis(grid.Row, *rowParam, *rowDeltas); err != nil {
		return fmt.Errorf("row axis: %w", err)
	}
	if grid.Column, err = overrideAxis(grid.Column, *colParam, *colDeltas); err != nil {
		return fmt.Errorf("column axis: %w", err)
	}

	hm, err := sensitivity.NewRunner(*workers, nil).Heatmap(ctx, m, grid, target)
	if err != nil {
		return err
	}

	fmt.Printf("=== %s: %s (rows) x %s (columns) ===\n", target.Label(), hm.RowParameter.Label(), hm.ColParameter.Label())
	fmt.Printf("%-12s", "")
	for _, l := range hm.ColLabels {
		fmt.Printf(" | %10s", l)
	}
	fmt.Println()
	for i, row := range hm.Values {
		fmt.Printf("%-12s", hm.RowLabels[i])
		for _, v := range row {
			fmt.Printf(" | %10s", metricText(target, v))
		}
		fmt.Println()
	}
	return nil
}

func runTornado(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tornado", flag.ExitOnError)
	path := fs.String("scenario", "", "scenario file; defaults when empty")
	sweepsFile := fs.String("sweeps", "config/sweeps.yaml", "sweep defaults file")
	metric := fs.String("metric", "irr", "target metric (irr or money_multiple)")
	_ = fs.Parse(args)

	_, m, err := loadModel(*path)
	if err != nil {
		return err
	}
	sweeps, err := config.LoadSweeps(*sweepsFile)
	if err != nil {
		return err
	}
	target, err := investment.ParseMetric(*metric)
	if err != nil {
		return err
	}

	res, err := sensitivity.NewRunner(0, nil).Tornado(ctx, m, target, sweeps.Swings)
	if err != nil {
		return err
	}

	fmt.Printf("=== Parameter Impact on %s (base %s) ===\n", target.Label(), metricText(target, res.Base))
	fmt.Printf("%-22s | %10s | %10s | %10s | %10s\n", "Parameter", "Low", "High", "Low Δ", "High Δ")
	fmt.Println(strings.Repeat("-", 74))
	for _, b := range res.Bars {
		fmt.Printf("%-22s | %10s | %10s | %10s | %10s\n", b.Label,
			metricText(target, b.Low), metricText(target, b.High),
			metricText(target, b.LowDiff), metricText(target, b.HighDiff))
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	path := fs.String("scenario", "", "scenario file; defaults when empty")
	sweepsFile := fs.String("sweeps", "config/sweeps.yaml", "sweep defaults file")
	kind := fs.String("format", "csv", "csv, xlsx, md or html")
	out := fs.String("out", ".", "output directory")
	_ = fs.Parse(args)

	in, m, err := loadModel(*path)
	if err != nil {
		return err
	}

	var body []byte
	switch *kind {
	case "csv", "xlsx":
		var b strings.Builder
		rows := export.Table(m, in.Symbol())
		if *kind == "csv" {
			err = export.WriteCSV(&b, rows)
		} else {
			err = export.WriteXLSX(&b, rows)
		}
		if err != nil {
			return err
		}
		body = []byte(b.String())
	case "md", "html":
		sweeps, err := config.LoadSweeps(*sweepsFile)
		if err != nil {
			return err
		}
		md, err := report(ctx, m, in, sweeps)
		if err != nil {
			return err
		}
		body = []byte(md)
		if *kind == "html" {
			fragment, err := export.HTML(md)
			if err != nil {
				return err
			}
			body = []byte(export.Document("PE Investment Analysis", fragment))
		}
	default:
		return fmt.Errorf("unknown format %q (want csv, xlsx, md or html)", *kind)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	file := filepath.Join(*out, export.FileName(in.CurrencyCode(), *kind))
	if err := os.WriteFile(file, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	fmt.Printf("✅ Wrote %s (%d bytes)\n", file, len(body))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func loadModel(path string) (scenario.Input, *investment.Model, error) {
	in := scenario.Default()
	if path != "" {
		var err error
		if in, err = scenario.Load(path); err != nil {
			return scenario.Input{}, nil, err
		}
	}
	m, err := scenario.Model(in)
	if err != nil {
		return scenario.Input{}, nil, err
	}
	return in, m, nil
}

func report(ctx context.Context, m *investment.Model, in scenario.Input, sweeps config.Sweeps) (string, error) {
	runner := sensitivity.NewRunner(0, nil)
	opts := export.ReportOptions{Symbol: in.Symbol()}
	for _, metric := range []investment.Metric{investment.MetricIRR, investment.MetricMoneyMultiple} {
		hm, err := runner.Heatmap(ctx, m, sweeps.Grid, metric)
		if err != nil {
			return "", err
		}
		opts.Heatmaps = append(opts.Heatmaps, hm)
	}
	if t, err := runner.Tornado(ctx, m, investment.MetricIRR, sweeps.Swings); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  parameter impact omitted: %v\n", err)
	} else {
		opts.Tornado = &t
	}
	return export.Markdown(m, opts), nil
}

func printRows(title string, rows []investment.ExportRow, sym string) {
	fmt.Printf("\n--- %s ---\n", title)
	for _, r := range rows {
		fmt.Printf("%-24s | %18s\n", r.Name, format.Value(r, sym))
	}
}

func overrideAxis(a sensitivity.Axis, param, deltas string) (sensitivity.Axis, error) {
	if param != "" {
		p, err := investment.ParseParameter(param)
		if err != nil {
			return a, err
		}
		a.Parameter = p
	}
	if deltas != "" {
		ds, err := parseDeltas(deltas)
		if err != nil {
			return a, err
		}
		a.Deltas = ds
	}
	return a, nil
}

func parseDeltas(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid delta %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// metricText renders a sweep value: IRR arrives in percent.
func metricText(target investment.Metric, v float64) string {
	if target == investment.MetricIRR {
		return format.Percent(v, 2)
	}
	return format.Multiple(v, 2)
}
