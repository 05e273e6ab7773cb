package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates the application was already closed.
	ErrClosed = errors.New("application closed")

	// ErrUnknownEngine indicates a script engine name with no implementation.
	ErrUnknownEngine = errors.New("unknown script engine")

	// ErrUnknownStore indicates a macro store name with no implementation.
	ErrUnknownStore = errors.New("unknown macro store")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ShutdownError collects the errors of components that failed to close.
type ShutdownError struct {
	Errors map[string]error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown: %d component(s) failed: %v", len(e.Errors), e.Unwrap())
}

// Unwrap joins the component errors.
func (e *ShutdownError) Unwrap() error {
	errs := make([]error, 0, len(e.Errors))
	for name, err := range e.Errors {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}
