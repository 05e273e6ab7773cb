// Package script defines the interface to the interpreter that evaluates
// expression mappings and replays command lines. Implementations live in
// the lua and js subpackages.
package script

import (
	"context"
	"errors"
	"strings"
)

// ErrEngineClosed is returned by a closed engine.
var ErrEngineClosed = errors.New("script engine is closed")

// Env is the read-only view of the editing surface handed to scripts.
// Lua and JavaScript see it as the global table "vim".
type Env struct {
	// Mode is the current mode name, e.g. "normal".
	Mode string

	// Count is the count typed before the mapping, or 0.
	Count int

	// Register is the register named with ", or 0.
	Register rune

	// Pending is the showcmd text of the incomplete command.
	Pending string
}

// Count1 is Count with a default of 1, like Vim's v:count1.
func (e Env) Count1() int {
	return max(e.Count, 1)
}

// RegisterName returns the register as a string, defaulting to the
// unnamed register.
func (e Env) RegisterName() string {
	if e.Register == 0 {
		return `"`
	}
	return string(e.Register)
}

// Result is the outcome of executing a command line.
type Result struct {
	// Keys are fed back to the dispatcher in Vim notation.
	Keys string

	// Output is text the script printed.
	Output string
}

// Engine evaluates script code on behalf of the dispatcher. An Engine is
// used from one goroutine at a time.
type Engine interface {
	// Eval evaluates the rhs of an expression mapping and returns the
	// keys to feed, in Vim notation.
	Eval(ctx context.Context, expr string, env Env) (string, error)

	// ExecuteEx executes a command line such as the one replayed by "@:".
	ExecuteEx(ctx context.Context, line string, env Env) (Result, error)

	// Close releases the interpreter.
	Close() error
}

// ParseNormal recognizes the ":normal {keys}" command, which every engine
// handles by feeding keys instead of running code. Abbreviations down to
// ":norm" are accepted, with or without "!".
func ParseNormal(line string) (keys string, ok bool) {
	line = strings.TrimLeft(line, ": \t")
	name, rest, _ := strings.Cut(line, " ")
	name = strings.TrimSuffix(name, "!")
	if len(name) < len("norm") || !strings.HasPrefix("normal", name) {
		return "", false
	}
	return strings.TrimLeft(rest, " "), true
}
