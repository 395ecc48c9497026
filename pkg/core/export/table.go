// Package export turns an evaluated model into downloadable documents: the
// flat CSV and Excel tables and a Markdown/HTML report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "PE Investment Analysis"

// Row is one line of the export table.
type Row struct {
	Parameter string               `json:"parameter"`
	RawValue  float64              `json:"raw_value"`
	Formatted string               `json:"formatted_value"`
	Kind      investment.ValueKind `json:"kind"`
}

// Table lists the fourteen export rows with values formatted for symbol.
func Table(m *investment.Model, symbol string) []Row {
	src := m.ExportRows()
	rows := make([]Row, len(src))
	for i, r := range src {
		rows[i] = Row{
			Parameter: r.Name,
			RawValue:  r.Value,
			Formatted: format.Value(r, symbol),
			Kind:      r.Kind,
		}
	}
	return rows
}

// FileName is the download name, e.g. pe_investment_analysis_AUD.csv.
func FileName(currency, ext string) string {
	return fmt.Sprintf("pe_investment_analysis_%s.%s", strings.ToUpper(currency), strings.TrimPrefix(ext, "."))
}

// WriteCSV writes the Parameter,Value table with formatted values.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Parameter", "Value"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Parameter, r.Formatted}); err != nil {
			return fmt.Errorf("failed to write csv row %q: %w", r.Parameter, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with Parameter, Raw Value and Formatted Value
// columns. NaN raw values are left blank.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Parameter", "Raw Value", "Formatted Value"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var raw interface{} = r.RawValue
		if math.IsNaN(r.RawValue) || math.IsInf(r.RawValue, 0) {
			raw = nil
		}
		line := []interface{}{r.Parameter, raw, r.Formatted}
		if err := f.SetSheetRow(SheetName, cell, &line); err != nil {
			return fmt.Errorf("failed to write row %q: %w", r.Parameter, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "C", 18); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
