package input

import (
	"errors"
	"fmt"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/vim"
)

var (
	// ErrUnknownSurface is returned for a surface ID that is not open.
	ErrUnknownSurface = errors.New("unknown surface")

	// ErrRecursiveMapping means mapping expansion exceeded the maximum
	// depth, as with "nmap a ba".
	ErrRecursiveMapping = errors.New("recursive mapping")

	// ErrNoLastChange is reported by "." before any change was made.
	ErrNoLastChange = errors.New("no previous change to repeat")

	// ErrNoLastCommand is reported by "@:" before any command line ran.
	ErrNoLastCommand = errors.New("no previous command line")

	// ErrNoScriptEngine is reported by expression mappings when no
	// script engine is configured.
	ErrNoScriptEngine = errors.New("no script engine configured")

	// ErrUnknownCommand is returned for an action ID with no definition.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrPanic reports a panic recovered while processing a key.
	ErrPanic = errors.New("panic while processing key")

	// errReported marks an error that was already added to the outcome.
	// It only unwinds the key queue.
	errReported = errors.New("already reported")
)

// SequenceErrorKind classifies a SequenceError.
type SequenceErrorKind uint8

const (
	// UnresolvedSequence means no binding matches the keys.
	UnresolvedSequence SequenceErrorKind = iota

	// InvalidArgument means a key cannot serve as the pending argument.
	InvalidArgument

	// RecursiveMapping means expansion exceeded the maximum depth.
	RecursiveMapping
)

// String returns a string representation of the kind.
func (k SequenceErrorKind) String() string {
	switch k {
	case UnresolvedSequence:
		return "unresolved sequence"
	case InvalidArgument:
		return "invalid argument"
	case RecursiveMapping:
		return "recursive mapping"
	default:
		return "unknown"
	}
}

// SequenceError reports keys that could not be turned into a command.
// The surface has been reset.
type SequenceError struct {
	Kind SequenceErrorKind
	Keys key.Sequence
	Err  error
}

func newSequenceError(keys key.Sequence, err error) *SequenceError {
	kind := UnresolvedSequence
	switch {
	case errors.Is(err, ErrRecursiveMapping):
		kind = RecursiveMapping
	case errors.Is(err, vim.ErrInvalidArgument):
		kind = InvalidArgument
	}
	return &SequenceError{Kind: kind, Keys: keys.Clone(), Err: err}
}

// Error implements the error interface.
func (e *SequenceError) Error() string {
	if len(e.Keys) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (keys %s)", e.Err, e.Keys)
}

// Unwrap returns the underlying error.
func (e *SequenceError) Unwrap() error {
	return e.Err
}

// ExecutorError reports a command the executor failed to run. The
// command counts as executed; it is not retried.
type ExecutorError struct {
	Command *command.Command
	Err     error
}

// Error implements the error interface.
func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutorError) Unwrap() error {
	return e.Err
}

// ScriptError reports a failed expression mapping or command line.
type ScriptError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
