// Package lua implements script.Engine with a sandboxed gopher-lua state.
package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/modalkeys/internal/input/script"
)

// DefaultExecutionTimeout bounds a single Eval or ExecuteEx call.
const DefaultExecutionTimeout = 2 * time.Second

// ErrExecutionTimeout is returned when a script runs past its deadline.
var ErrExecutionTimeout = errors.New("lua execution timeout")

// Engine evaluates expression mappings and command lines in Lua.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes calls.
type Engine struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	closed  bool

	// Collected by feed() and print() during ExecuteEx.
	keys   strings.Builder
	output strings.Builder
}

var _ script.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithExecutionTimeout sets the deadline applied to each call.
func WithExecutionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New creates a Lua engine with only the safe standard libraries open.
func New(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.L.SetGlobal("feed", e.L.NewFunction(e.luaFeed))
	e.L.SetGlobal("print", e.L.NewFunction(e.luaPrint))
	return e
}

// openSafeLibraries opens base, table, string and math. io, os, debug and
// package stay closed, and the chunk loaders are removed from base.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Eval implements script.Engine. The expression is evaluated as
// "return <expr>" and its first value converted to a string.
func (e *Engine) Eval(ctx context.Context, expr string, env script.Env) (string, error) {
	var out string
	err := e.run(ctx, env, func() error {
		top := e.L.GetTop()
		if err := e.L.DoString("return " + expr); err != nil {
			return err
		}
		if e.L.GetTop() > top {
			out = toString(e.L.Get(top + 1))
		}
		e.L.SetTop(top)
		return nil
	})
	return out, err
}

// ExecuteEx implements script.Engine. ":normal" lines feed their keys;
// anything else, with an optional leading "lua", runs as a Lua chunk
// that may call feed(keys) and print(...).
func (e *Engine) ExecuteEx(ctx context.Context, line string, env script.Env) (script.Result, error) {
	if keys, ok := script.ParseNormal(line); ok {
		return script.Result{Keys: keys}, nil
	}
	chunk := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(chunk, "lua "); ok {
		chunk = rest
	}

	var res script.Result
	err := e.run(ctx, env, func() error {
		e.keys.Reset()
		e.output.Reset()
		top := e.L.GetTop()
		err := e.L.DoString(chunk)
		e.L.SetTop(top)
		res = script.Result{Keys: e.keys.String(), Output: e.output.String()}
		return err
	})
	return res, err
}

// run executes fn with env installed, a deadline set and panics recovered.
func (e *Engine) run(ctx context.Context, env script.Env, fn func() error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return script.ErrEngineClosed
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	e.L.SetGlobal("vim", e.envTable(env))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if err := fn(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

func (e *Engine) envTable(env script.Env) *lua.LTable {
	t := e.L.NewTable()
	t.RawSetString("mode", lua.LString(env.Mode))
	t.RawSetString("count", lua.LNumber(env.Count))
	t.RawSetString("count1", lua.LNumber(env.Count1()))
	t.RawSetString("register", lua.LString(env.RegisterName()))
	t.RawSetString("pending", lua.LString(env.Pending))
	return t
}

func (e *Engine) luaFeed(L *lua.LState) int {
	e.keys.WriteString(L.CheckString(1))
	return 0
}

func (e *Engine) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	e.output.WriteString(strings.Join(parts, "\t"))
	e.output.WriteByte('\n')
	return 0
}

func toString(v lua.LValue) string {
	switch v := v.(type) {
	case *lua.LNilType:
		return ""
	case lua.LBool:
		if v {
			return "1"
		}
		return "0"
	default:
		return v.String()
	}
}

// Close releases the Lua state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.L.Close()
	e.closed = true
	return nil
}
