package fractal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates an input that violates a precondition.
	ErrInvalidArgument = errors.New("fractal: invalid argument")

	// ErrNonConvergent indicates a root finder that could not bracket a sign change.
	ErrNonConvergent = errors.New("fractal: no convergence")
)

// ParamError names the parameter that failed validation.
type ParamError struct {
	Param   string
	Value   float64
	Reason  string
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%g: %s", e.Wrapped.Error(), e.Param, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}

// Invalid builds a ParamError wrapping ErrInvalidArgument.
func Invalid(param string, value float64, reason string) error {
	return &ParamError{Param: param, Value: value, Reason: reason, Wrapped: ErrInvalidArgument}
}
