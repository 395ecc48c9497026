package format

import (
	"math"
	"testing"

	"pe_modeller/pkg/core/investment"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		v    float64
		sym  string
		want string
	}{
		{12_000_000, "AU$", "AU$12,000,000"},
		{32_210_200.4, "US$", "US$32,210,200"},
		{999.5, "£", "£1,000"},
		{0, "€", "€0"},
		{-1_234_567, "$", "-$1,234,567"},
		{-0.4, "$", "$0"},
		{math.NaN(), "$", "n/a"},
	}
	for _, tt := range tests {
		if got := Currency(tt.v, tt.sym); got != tt.want {
			t.Errorf("Currency(%v, %q) = %q, want %q", tt.v, tt.sym, got, tt.want)
		}
	}
}

func TestSigned(t *testing.T) {
	if got := Signed(7_326_120, "AU$"); got != "+AU$7,326,120" {
		t.Errorf("positive: got %q", got)
	}
	if got := Signed(-500, "AU$"); got != "-AU$500" {
		t.Errorf("negative: got %q", got)
	}
}

func TestPercentAndMultiple(t *testing.T) {
	if got := Percent(21.832297757, 2); got != "21.83%" {
		t.Errorf("Percent = %q", got)
	}
	if got := Percent(12, 1); got != "12.0%" {
		t.Errorf("Percent = %q", got)
	}
	if got := Percent(-0.001, 2); got != "0.00%" {
		t.Errorf("Percent negative zero = %q", got)
	}
	if got := Multiple(2.684183, 2); got != "2.68x" {
		t.Errorf("Multiple = %q", got)
	}
	if got := Multiple(2.675, 2); got != "2.68x" {
		t.Errorf("Multiple half-up = %q", got)
	}
	if got := Multiple(1500, 1); got != "1,500.0x" {
		t.Errorf("Multiple grouping = %q", got)
	}
	if got := Percent(math.NaN(), 2); got != NotAvailable {
		t.Errorf("Percent NaN = %q", got)
	}
}

func TestYears(t *testing.T) {
	if got := Years(1); got != "1 year" {
		t.Errorf("Years(1) = %q", got)
	}
	if got := Years(5); got != "5 years" {
		t.Errorf("Years(5) = %q", got)
	}
}

func TestSymbol(t *testing.T) {
	tests := map[string]string{"AUD": "AU$", "usd": "US$", "EUR": "€", " GBP ": "£", "JPY": "$"}
	for in, want := range tests {
		if got := Symbol(in); got != want {
			t.Errorf("Symbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValueUsesKind(t *testing.T) {
	tests := []struct {
		row  investment.ExportRow
		want string
	}{
		{investment.ExportRow{Name: "Entry Price", Value: 12_000_000, Kind: investment.KindCurrency}, "AU$12,000,000"},
		{investment.ExportRow{Name: "Revenue Growth", Value: 10, Kind: investment.KindPercent}, "10.00%"},
		{investment.ExportRow{Name: "Exit Multiple", Value: 10, Kind: investment.KindMultiple}, "10.00x"},
		{investment.ExportRow{Name: "Holding Period", Value: 5, Kind: investment.KindYears}, "5 years"},
	}
	for _, tt := range tests {
		if got := Value(tt.row, "AU$"); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.row.Name, got, tt.want)
		}
	}
}
