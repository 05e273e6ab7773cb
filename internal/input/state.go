package input

import (
	"context"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/input/vim"
)

// SurfaceState is the read-only view of a surface handed to the
// executor, hooks and the script engine.
type SurfaceState struct {
	ID     SurfaceID
	Buffer string
	Mode   mode.Mode

	// BuilderState is the phase of the command being typed.
	BuilderState vim.State

	// Count and Register belong to the command being typed.
	Count    int
	Register rune

	// Pending is the showcmd text.
	Pending string

	// Recording is the register being recorded into, or 0.
	Recording rune

	// Replaying is true while keys come from a macro or "." repeat.
	Replaying bool
}

// Executor performs commands: text edits, cursor moves, scrolling. It
// is called synchronously while a key is processed and must not submit
// keys to the same surface except with the context it was given.
type Executor interface {
	Execute(ctx context.Context, cmd *command.Command, state SurfaceState) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd *command.Command, state SurfaceState) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, cmd *command.Command, state SurfaceState) error {
	return f(ctx, cmd, state)
}
