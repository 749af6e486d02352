package expression

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when parsing an empty expression.
	ErrEmpty = errors.New("empty expression")

	// ErrSyntax is returned for malformed expressions.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupported is returned for valid Go syntax outside the arithmetic subset.
	ErrUnsupported = errors.New("unsupported construct")

	// ErrUnbound is returned when evaluation meets a variable without a value.
	ErrUnbound = errors.New("unbound variable")
)

// Error wraps a parse or evaluation failure with the offending source.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UnboundVariableError names the variable that had no value during evaluation.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("variable %q has no value", e.Name)
}

func (e *UnboundVariableError) Unwrap() error {
	return ErrUnbound
}
