package investment

import "errors"

var (
	// ErrInvalidInput is returned when an assumption cannot produce a defined model,
	// e.g. a non-positive holding period or a non-finite number.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDivisionByZero is returned when the entry price is zero and the money
	// multiple cannot be formed.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUndefinedIRR is a non-fatal warning: a negative money multiple raised to a
	// fractional power has no real root. The model is still built and IRR() is NaN.
	ErrUndefinedIRR = errors.New("irr undefined")
)
