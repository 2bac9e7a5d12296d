package types

import "errors"

var (
	// ErrConfiguration indicates an unknown mixing rule, phase model or a
	// malformed phase/component registration.
	ErrConfiguration = errors.New("flash: configuration error")

	// ErrDimensionMismatch indicates a fraction vector whose length differs
	// from the number of components of the equation of state.
	ErrDimensionMismatch = errors.New("flash: dimension mismatch")

	// ErrModelLogic indicates a request that contradicts the model, like an
	// equilibrium equation between the reference phase and itself.
	ErrModelLogic = errors.New("flash: model logic error")

	// ErrSingularSystem indicates a singular linear system in a Newton step.
	ErrSingularSystem = errors.New("flash: singular linear system")

	// ErrNonFinite indicates a NaN or infinite input to the equation of state,
	// like the composition of a phase without any fraction.
	ErrNonFinite = errors.New("flash: non-finite value")

	// ErrUnknownVariable indicates a lookup of a variable or equation that was
	// never created.
	ErrUnknownVariable = errors.New("flash: unknown variable or equation")
)

// FlashError wraps one of the sentinel errors with the failing operation.
type FlashError struct {
	Op  string
	Err error
}

func (e *FlashError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *FlashError) Unwrap() error {
	return e.Err
}

func NewError(err error, op string) error {
	return &FlashError{Op: op, Err: err}
}
