package model

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/scenario"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// read decodes a JSON body into dest and validates it.
func read(r *http.Request, dest any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return badRequest("invalid JSON", err)
	}
	if err := validate.StructCtx(r.Context(), dest); err != nil {
		return badRequest("validation error", err)
	}
	return nil
}

// readScenario parses an embedded scenario document. An empty value means
// the default scenario; partial documents are filled from it.
func readScenario(raw jsoniter.RawMessage) (scenario.Input, *investment.Model, error) {
	in := scenario.Default()
	if len(raw) > 0 && string(raw) != "null" {
		parsed, err := scenario.Parse(raw)
		if err != nil {
			return scenario.Input{}, nil, err
		}
		in = parsed
	}
	m, err := scenario.Model(in)
	if err != nil {
		return scenario.Input{}, nil, fmt.Errorf("scenario: %w", err)
	}
	return in, m, nil
}

type sensitivityRequest struct {
	Scenario  jsoniter.RawMessage `json:"scenario"`
	Parameter string              `json:"parameter" validate:"required"`
	Base      *float64            `json:"base"`
	Deltas    []float64           `json:"deltas" validate:"required,min=1,max=1000"`
	Metric    string              `json:"metric" validate:"required"`
}

type axisRequest struct {
	Parameter string    `json:"parameter" validate:"required"`
	Base      *float64  `json:"base"`
	Deltas    []float64 `json:"deltas" validate:"required,min=1,max=200"`
}

type matrixRequest struct {
	Scenario jsoniter.RawMessage `json:"scenario"`
	Row      *axisRequest        `json:"row"`
	Column   *axisRequest        `json:"column"`
	Metric   string              `json:"metric" validate:"required"`
}

type swingRequest struct {
	Parameter string  `json:"parameter" validate:"required"`
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
}

type tornadoRequest struct {
	Scenario jsoniter.RawMessage `json:"scenario"`
	Metric   string              `json:"metric" validate:"required"`
	Swings   []swingRequest      `json:"swings" validate:"omitempty,max=50,dive"`
}
