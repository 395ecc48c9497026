// Package format renders model values for tables, reports and exports.
//
// Rounding goes through shopspring/decimal (half away from zero) on the
// shortest decimal representation of each float, so 2.675 renders as 2.68
// rather than the 2.67 that binary rounding would give.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"pe_modeller/pkg/core/investment"
)

// NotAvailable is rendered for NaN values such as an undefined IRR.
const NotAvailable = "n/a"

// Currency codes accepted by Symbol.
const (
	AUD = "AUD"
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
)

var symbols = map[string]string{
	AUD: "AU$",
	USD: "US$",
	EUR: "€",
	GBP: "£",
}

// Currencies lists the supported currency codes in display order.
func Currencies() []string {
	return []string{AUD, USD, EUR, GBP}
}

// Symbol maps a currency code to its display prefix. Unknown codes fall back
// to "$".
func Symbol(currency string) string {
	if s, ok := symbols[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return s
	}
	return "$"
}

// Currency renders v with no decimals and thousands separators, e.g.
// "AU$12,000,000". Negative amounts put the sign before the symbol.
func Currency(v float64, symbol string) string {
	if !finite(v) {
		return NotAvailable
	}
	digits := fixed(v, 0)
	if strings.HasPrefix(digits, "-") {
		return "-" + symbol + digits[1:]
	}
	return symbol + digits
}

// Signed renders a currency amount with an explicit sign, for bridge steps.
func Signed(v float64, symbol string) string {
	s := Currency(v, symbol)
	if s == NotAvailable || strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

// Percent renders v (already in percent) as "21.83%".
func Percent(v float64, decimals int32) string {
	if !finite(v) {
		return NotAvailable
	}
	return fixed(v, decimals) + "%"
}

// Multiple renders v as "2.68x".
func Multiple(v float64, decimals int32) string {
	if !finite(v) {
		return NotAvailable
	}
	return fixed(v, decimals) + "x"
}

// Years renders a holding period, "1 year" or "5 years".
func Years(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	s := fixed(v, 0)
	if s == "1" {
		return s + " year"
	}
	return s + " years"
}

// Value renders an export row according to its kind. Percentages and
// multiples use two decimals.
func Value(row investment.ExportRow, symbol string) string {
	switch row.Kind {
	case investment.KindCurrency:
		return Currency(row.Value, symbol)
	case investment.KindPercent:
		return Percent(row.Value, 2)
	case investment.KindMultiple:
		return Multiple(row.Value, 2)
	case investment.KindYears:
		return Years(row.Value)
	}
	return decimal.NewFromFloat(row.Value).String()
}

// fixed rounds to the given number of decimals and inserts thousands
// separators into the integer part.
func fixed(v float64, decimals int32) string {
	s := decimal.NewFromFloat(v).StringFixed(decimals)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if strings.Trim(intPart+frac, "0.") == "" {
		sign = "" // -0.00 renders as 0.00
	}
	return sign + group(intPart) + frac
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
