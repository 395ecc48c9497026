// Package scenario is the input boundary of the modeller: it reads scenario
// files written by people, fills gaps from the defaults and checks ranges
// before anything reaches the valuation engine.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"pe_modeller/pkg/core/format"
	"pe_modeller/pkg/core/investment"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Input is a scenario as supplied by a user. Percentages are plain
// percentages (15 means 15%).
type Input struct {
	InitialRevenue      float64 `json:"initial_revenue" yaml:"initial_revenue" validate:"gte=1000"`
	InitialEBITDAMargin float64 `json:"initial_ebitda_margin" yaml:"initial_ebitda_margin" validate:"gte=0,lte=100"`
	EntryMultiple       float64 `json:"entry_multiple" yaml:"entry_multiple" validate:"gt=0,lte=100"`
	RevenueGrowth       float64 `json:"revenue_growth" yaml:"revenue_growth" validate:"gt=-100,lte=1000"`
	HoldingPeriod       int     `json:"holding_period" yaml:"holding_period" validate:"gte=1,lte=100"`
	ExitEBITDAMargin    float64 `json:"exit_ebitda_margin" yaml:"exit_ebitda_margin" validate:"gte=0,lte=100"`
	ExitMultiple        float64 `json:"exit_multiple" yaml:"exit_multiple" validate:"gt=0,lte=100"`
	Currency            string  `json:"currency,omitempty" yaml:"currency,omitempty" validate:"omitempty,oneof=AUD USD EUR GBP"`
}

// Default is the starting scenario: a 10m revenue business bought at 8x
// EBITDA and sold at 10x after five years.
func Default() Input {
	return Input{
		InitialRevenue:      10_000_000,
		InitialEBITDAMargin: 15,
		EntryMultiple:       8,
		RevenueGrowth:       10,
		HoldingPeriod:       5,
		ExitEBITDAMargin:    20,
		ExitMultiple:        10,
		Currency:            format.AUD,
	}
}

// Assumptions converts the input into engine assumptions.
func (in Input) Assumptions() investment.Assumptions {
	return investment.Assumptions{
		InitialRevenue:      in.InitialRevenue,
		InitialEBITDAMargin: in.InitialEBITDAMargin,
		EntryMultiple:       in.EntryMultiple,
		RevenueGrowth:       in.RevenueGrowth,
		HoldingPeriod:       in.HoldingPeriod,
		ExitEBITDAMargin:    in.ExitEBITDAMargin,
		ExitMultiple:        in.ExitMultiple,
	}
}

// Symbol returns the display prefix for the scenario's currency.
func (in Input) Symbol() string {
	return format.Symbol(in.CurrencyCode())
}

// CurrencyCode returns the currency, defaulting to AUD.
func (in Input) CurrencyCode() string {
	if in.Currency == "" {
		return format.AUD
	}
	return strings.ToUpper(in.Currency)
}

// Validate checks every field range. Failures wrap investment.ErrInvalidInput
// and name each offending field.
func Validate(in Input) error {
	in.Currency = strings.ToUpper(in.Currency)
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", investment.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", investment.ErrInvalidInput, strings.Join(msgs, "; "))
}

// Model validates in and evaluates it.
func Model(in Input) (*investment.Model, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	return investment.New(in.Assumptions())
}

func fieldMessage(fe validator.FieldError) string {
	name := jsonName(fe.StructField())
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", name, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s, got %v", name, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s, got %v", name, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}

var jsonNames = map[string]string{
	"InitialRevenue":      "initial_revenue",
	"InitialEBITDAMargin": "initial_ebitda_margin",
	"EntryMultiple":       "entry_multiple",
	"RevenueGrowth":       "revenue_growth",
	"HoldingPeriod":       "holding_period",
	"ExitEBITDAMargin":    "exit_ebitda_margin",
	"ExitMultiple":        "exit_multiple",
	"Currency":            "currency",
}

func jsonName(field string) string {
	if n, ok := jsonNames[field]; ok {
		return n
	}
	return field
}
