// Package model serves the valuation engine over HTTP: scenario evaluation,
// sensitivity sweeps and grids, parameter impact and document export.
package model

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"pe_modeller/pkg/config"
	"pe_modeller/pkg/core/export"
	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/scenario"
	"pe_modeller/pkg/core/sensitivity"
	"pe_modeller/pkg/logger"
)

// Handler holds dependencies for model endpoints
type Handler struct {
	runner *sensitivity.Runner
	sweeps config.Sweeps
	log    *logger.Logger
}

// NewHandler creates a new model handler
func NewHandler(runner *sensitivity.Runner, sweeps config.Sweeps, log *logger.Logger) *Handler {
	return &Handler{runner: runner, sweeps: sweeps, log: log}
}

// HandleEvaluate evaluates the scenario in the request body. The body may be
// JSON, YAML or Hjson; omitted fields take their defaults.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("failed to read body", err)
	}

	in, m, err := readScenario(bytes.TrimSpace(body))
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger.FromContext(r.Context(), h.log).Infow("scenario evaluated",
		"run_id", runID,
		"money_multiple", m.MoneyMultiple(),
		"irr_defined", m.IRRDefined(),
	)

	replyJSON(r.Context(), w, http.StatusOK, newEvaluateResponse(runID, in, m))
	return nil
}

// HandleSensitivity runs a one-parameter sweep. Base defaults to the
// scenario's own value for the parameter.
func (h *Handler) HandleSensitivity(w http.ResponseWriter, r *http.Request) error {
	var req sensitivityRequest
	if err := read(r, &req); err != nil {
		return err
	}

	param, err := investment.ParseParameter(req.Parameter)
	if err != nil {
		return err
	}
	metric, err := investment.ParseMetric(req.Metric)
	if err != nil {
		return err
	}
	_, m, err := readScenario(req.Scenario)
	if err != nil {
		return err
	}

	base, _ := m.Assumptions().Get(param)
	if req.Base != nil {
		base = *req.Base
	}

	values, err := h.runner.Sweep(r.Context(), m, sensitivity.SweepRequest{
		Parameter: param,
		Base:      base,
		Deltas:    req.Deltas,
		Metric:    metric,
	})
	if err != nil {
		return fmt.Errorf("runner.Sweep: %w", err)
	}

	replyJSON(r.Context(), w, http.StatusOK, sensitivityResponse{
		Parameter: param,
		Metric:    metric,
		Base:      base,
		Deltas:    req.Deltas,
		Labels:    sensitivity.Labels(param, base, req.Deltas),
		Values:    nullableSlice(values),
	})
	return nil
}

// HandleMatrix evaluates a two-parameter grid. Missing axes come from the
// configured heatmap layout.
func (h *Handler) HandleMatrix(w http.ResponseWriter, r *http.Request) error {
	var req matrixRequest
	if err := read(r, &req); err != nil {
		return err
	}

	metric, err := investment.ParseMetric(req.Metric)
	if err != nil {
		return err
	}
	_, m, err := readScenario(req.Scenario)
	if err != nil {
		return err
	}

	rowParam, rowBase, rowDeltas, err := h.axis(m, req.Row, h.sweeps.Grid.Row)
	if err != nil {
		return err
	}
	colParam, colBase, colDeltas, err := h.axis(m, req.Column, h.sweeps.Grid.Column)
	if err != nil {
		return err
	}

	values, err := h.runner.Matrix(r.Context(), m, sensitivity.MatrixRequest{
		RowParameter:    rowParam,
		RowBase:         rowBase,
		RowDeltas:       rowDeltas,
		ColumnParameter: colParam,
		ColumnBase:      colBase,
		ColumnDeltas:    colDeltas,
		Metric:          metric,
	})
	if err != nil {
		return fmt.Errorf("runner.Matrix: %w", err)
	}

	replyJSON(r.Context(), w, http.StatusOK, matrixResponse{
		Metric:          metric,
		RowParameter:    rowParam,
		ColumnParameter: colParam,
		RowLabels:       sensitivity.Labels(rowParam, rowBase, rowDeltas),
		ColumnLabels:    sensitivity.Labels(colParam, colBase, colDeltas),
		Values:          nullableGrid(values),
	})
	return nil
}

func (h *Handler) axis(m *investment.Model, req *axisRequest, fallback sensitivity.Axis) (investment.Parameter, float64, []float64, error) {
	param, deltas := fallback.Parameter, fallback.Deltas
	if req != nil {
		p, err := investment.ParseParameter(req.Parameter)
		if err != nil {
			return 0, 0, nil, err
		}
		param, deltas = p, req.Deltas
	}
	base, _ := m.Assumptions().Get(param)
	if req != nil && req.Base != nil {
		base = *req.Base
	}
	return param, base, deltas, nil
}

// HandleTornado ranks parameters by their impact on the chosen metric.
func (h *Handler) HandleTornado(w http.ResponseWriter, r *http.Request) error {
	var req tornadoRequest
	if err := read(r, &req); err != nil {
		return err
	}

	metric, err := investment.ParseMetric(req.Metric)
	if err != nil {
		return err
	}
	_, m, err := readScenario(req.Scenario)
	if err != nil {
		return err
	}

	swings := h.sweeps.Swings
	if len(req.Swings) > 0 {
		swings = make([]sensitivity.Swing, 0, len(req.Swings))
		for _, s := range req.Swings {
			p, err := investment.ParseParameter(s.Parameter)
			if err != nil {
				return err
			}
			swings = append(swings, sensitivity.Swing{Parameter: p, Low: s.Low, High: s.High})
		}
	}

	result, err := h.runner.Tornado(r.Context(), m, metric, swings)
	if err != nil {
		return fmt.Errorf("runner.Tornado: %w", err)
	}

	replyJSON(r.Context(), w, http.StatusOK, newTornadoResponse(result))
	return nil
}

// HandleExport returns the scenario as a downloadable csv, xlsx, html or md
// document, selected by the format query parameter.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) error {
	kind := strings.ToLower(r.URL.Query().Get("format"))
	if kind == "" {
		kind = "csv"
	}
	if !lo.Contains([]string{"csv", "xlsx", "html", "md"}, kind) {
		return badRequest(fmt.Sprintf("unsupported format %q", kind), nil)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("failed to read body", err)
	}
	in, m, err := readScenario(bytes.TrimSpace(body))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	contentType := ""
	switch kind {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, export.Table(m, in.Symbol()))
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, export.Table(m, in.Symbol()))
	case "html", "md":
		var md string
		md, err = h.report(r, in, m)
		if err != nil {
			break
		}
		if kind == "md" {
			contentType = "text/markdown; charset=utf-8"
			buf.WriteString(md)
			break
		}
		contentType = "text/html; charset=utf-8"
		var fragment string
		fragment, err = export.HTML(md)
		if err == nil {
			buf.WriteString(export.Document("PE Investment Analysis", fragment))
		}
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(in.CurrencyCode(), kind)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func (h *Handler) report(r *http.Request, in scenario.Input, m *investment.Model) (string, error) {
	opts := export.ReportOptions{Symbol: in.Symbol()}

	for _, metric := range []investment.Metric{investment.MetricIRR, investment.MetricMoneyMultiple} {
		hm, err := h.runner.Heatmap(r.Context(), m, h.sweeps.Grid, metric)
		if err != nil {
			return "", err
		}
		opts.Heatmaps = append(opts.Heatmaps, hm)
	}

	// A swing can step outside the valid range (a one-year hold minus one
	// year); the report then goes out without the impact section.
	tornado, err := h.runner.Tornado(r.Context(), m, investment.MetricIRR, h.sweeps.Swings)
	if err != nil {
		logger.FromContext(r.Context(), h.log).WithError(err).Warn("parameter impact omitted from report")
	} else {
		opts.Tornado = &tornado
	}

	return export.Markdown(m, opts), nil
}

// HandleDefaults returns the default scenario and sweep layout.
func (h *Handler) HandleDefaults(w http.ResponseWriter, r *http.Request) error {
	replyJSON(r.Context(), w, http.StatusOK, defaultsResponse{
		Scenario:   scenario.Default(),
		Swings:     h.sweeps.Swings,
		Grid:       h.sweeps.Grid,
		Currencies: format.Currencies(),
		Parameters: lo.Map(investment.Parameters(), func(p investment.Parameter, _ int) string { return p.String() }),
		Metrics:    []string{investment.MetricIRR.String(), investment.MetricMoneyMultiple.String()},
	})
	return nil
}
