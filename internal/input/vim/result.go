package vim

import (
	"errors"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
)

// Errors reported in Result.Err.
var (
	// ErrUnresolvedSequence means the keys match no binding and cannot be
	// extended into one.
	ErrUnresolvedSequence = errors.New("no command for key sequence")

	// ErrInvalidArgument means a key cannot serve as the pending argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingDefinition means the command registry lacks a definition
	// the builder produces itself.
	ErrMissingDefinition = errors.New("required command definition missing")
)

// Status indicates the result of adding a key.
type Status uint8

const (
	// StatusNeedsMoreInput indicates more input is needed.
	StatusNeedsMoreInput Status = iota

	// StatusComplete indicates a complete command was built.
	StatusComplete

	// StatusInvalid indicates the sequence is invalid. The builder has
	// been reset.
	StatusInvalid

	// StatusAwaitingArgument indicates a command is waiting for its
	// argument.
	StatusAwaitingArgument

	// StatusExpand indicates a mapping matched; its replacement must be
	// fed back before any further input.
	StatusExpand

	// StatusCancelled indicates the command was abandoned without error,
	// as with <BS> on an empty command line.
	StatusCancelled
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusNeedsMoreInput:
		return "needsMoreInput"
	case StatusComplete:
		return "complete"
	case StatusInvalid:
		return "invalid"
	case StatusAwaitingArgument:
		return "awaitingArgument"
	case StatusExpand:
		return "expand"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// State is the phase a builder is in between keys.
type State uint8

const (
	// StateIdle holds nothing.
	StateIdle State = iota

	// StateAccumulatingMapping holds count digits, a register or keys
	// that may still extend to a longer binding.
	StateAccumulatingMapping

	// StateAwaitingArgument waits for a character, digraph or command line.
	StateAwaitingArgument

	// StateOperatorPending has an operator and waits for its motion.
	StateOperatorPending
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulatingMapping:
		return "accumulatingMapping"
	case StateAwaitingArgument:
		return "awaitingArgument"
	case StateOperatorPending:
		return "operatorPending"
	default:
		return "unknown"
	}
}

// Input is one key handed to the builder.
type Input struct {
	Event key.Event

	// NoRemap marks keys produced by a noremap mapping. They resolve
	// against built-in bindings only.
	NoRemap bool

	// Depth is the mapping expansion depth that produced the key, 0 for
	// typed keys.
	Depth int
}

// Result is the outcome of AddKey or ForceResolve.
type Result struct {
	Status Status

	// Command is set for StatusComplete.
	Command *command.Command

	// Argument and Prompt describe what StatusAwaitingArgument waits for.
	Argument command.ArgType
	Prompt   rune

	// OperatorPending is set on the key that resolved an operator.
	OperatorPending bool

	// Mapping is the entry to expand for StatusExpand. Depth is the
	// deepest expansion level among the keys that matched it.
	Mapping *keymap.Entry
	Depth   int

	// Requeue holds keys that were read ahead but not consumed. They must
	// be processed next, before any new input.
	Requeue []Input

	Err error
}

func requeueOf(seq key.Sequence, from Input) []Input {
	if len(seq) == 0 {
		return nil
	}
	out := make([]Input, len(seq))
	for i, ev := range seq {
		out[i] = Input{Event: ev, NoRemap: from.NoRemap, Depth: from.Depth}
	}
	return out
}
