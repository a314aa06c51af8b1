package dynamo

import (
	"errors"
	"strings"
)

// Domain errors for state, descriptor and input operations.
var (
	// ErrInvalidName indicates a lookup of a state variable that does not exist.
	ErrInvalidName = errors.New("dynamo: invalid variable name")

	// ErrSizeMismatch indicates a container whose length differs from the state dimension.
	ErrSizeMismatch = errors.New("dynamo: invalid container size")

	// ErrDuplicateName is raised when a state is built with a repeated name.
	ErrDuplicateName = errors.New("dynamo: duplicate variable name")

	// ErrDimensionMismatch indicates an extraction into a larger state.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between states")

	// ErrMatrixNotFound indicates a matrix that was never registered.
	ErrMatrixNotFound = errors.New("dynamo: matrix not found")

	// ErrVectorNotFound indicates a vector that was never registered.
	ErrVectorNotFound = errors.New("dynamo: vector not found")

	// ErrMissingInput indicates a required input property is absent.
	ErrMissingInput = errors.New("dynamo: missing input property")

	// ErrInputType indicates an input property holding a value of the wrong type.
	ErrInputType = errors.New("dynamo: input property has wrong type")

	// ErrInvalidState indicates a state with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// NameError reports an unknown variable name together with the valid ones.
type NameError struct {
	Name  string
	Valid []string
}

func (e *NameError) Error() string {
	var b strings.Builder
	b.WriteString("Invalid variable name. Name ")
	b.WriteString(e.Name)
	b.WriteString(" not in: [")
	for _, n := range e.Valid {
		b.WriteString(n)
		b.WriteString(",")
	}
	b.WriteString("]")
	return b.String()
}

func (e *NameError) Unwrap() error {
	return ErrInvalidName
}
