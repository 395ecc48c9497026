package model

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error codes returned in errorResponse.Code.
const (
	CodeInvalidInput    = "InvalidInput"
	CodeDivisionByZero  = "DivisionByZero"
	CodeValidationError = "ValidationError"
	CodeInternalError   = "InternalServerError"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"support_id"`
}

// requestError is a failure detected before the model runs (bad JSON, a
// missing field).
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

func replyJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(ctx, logger.NewNop()).Errorw("json.Encode", "error", err)
	}
}

// replyError maps engine and request errors to a status code.
func replyError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx, logger.NewNop())

	response := errorResponse{Message: err.Error(), SupportID: requestID(ctx)}
	status := http.StatusInternalServerError

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		response.Code = CodeValidationError
		status = http.StatusBadRequest
	case errors.Is(err, investment.ErrInvalidInput):
		response.Code = CodeInvalidInput
		status = http.StatusBadRequest
	case errors.Is(err, investment.ErrDivisionByZero):
		response.Code = CodeDivisionByZero
		status = http.StatusUnprocessableEntity
	default:
		response.Code = CodeInternalError
		response.Message = "internal error"
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Warnw("request rejected", "code", response.Code)
	}

	replyJSON(ctx, w, status, response)
}
