package input

import (
	"errors"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/input/vim"
)

// Status summarizes what a key did.
type Status uint8

const (
	// StatusIgnored means the key completed nothing and left nothing
	// pending, as with a <Nop> mapping.
	StatusIgnored Status = iota

	// StatusPending means more keys are needed.
	StatusPending

	// StatusExecuted means one or more commands ran and the surface is idle.
	StatusExecuted

	// StatusCancelled means the pending command was abandoned, by Escape
	// or by <BS> on an empty command line.
	StatusCancelled

	// StatusInvalid means the keys formed no command. The surface was reset.
	StatusInvalid

	// StatusFailed means a command was rejected by the executor, the
	// script engine or the macro registers.
	StatusFailed

	// StatusConsumed means a hook consumed the key.
	StatusConsumed

	// StatusQueued means the key was submitted from inside the processing
	// of another key and will be processed when that call resumes.
	StatusQueued
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIgnored:
		return "ignored"
	case StatusPending:
		return "pending"
	case StatusExecuted:
		return "executed"
	case StatusCancelled:
		return "cancelled"
	case StatusInvalid:
		return "invalid"
	case StatusFailed:
		return "failed"
	case StatusConsumed:
		return "consumed"
	case StatusQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Outcome reports everything one call into the dispatcher caused. Keys
// read ahead, mapping replacements and macro keys are all processed
// within the call, so an Outcome may list many commands.
type Outcome struct {
	Status Status
	State  vim.State
	Mode   mode.Mode

	// Commands lists the completed commands in execution order, up to
	// the dispatcher's MaxReportedCommands. CommandCount counts them all.
	Commands     []*command.Command
	CommandCount int

	Errors []error

	// Bell is set whenever Errors is not empty, and for an Escape that
	// had nothing to cancel.
	Bell bool

	// Silent is set when a <silent> mapping was expanded.
	Silent bool

	// Pending is the showcmd text of the incomplete command.
	Pending string

	// CommandLine is the prompt and text of a command line being typed.
	CommandLine string

	// Recording is the register being recorded into, or 0.
	Recording rune

	// Messages holds output printed by the script engine.
	Messages []string
}

// Err joins all errors, or returns nil.
func (o *Outcome) Err() error {
	return errors.Join(o.Errors...)
}

// Executed reports whether any command completed.
func (o *Outcome) Executed() bool {
	return o.CommandCount > 0
}
