// Package js implements script.Engine on the goja JavaScript runtime.
package js

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/dshills/modalkeys/internal/input/script"
)

// DefaultExecutionTimeout bounds a single Eval or ExecuteEx call.
const DefaultExecutionTimeout = 2 * time.Second

// ErrInterrupted is returned when a script is stopped by its deadline or
// a cancelled context.
var ErrInterrupted = errors.New("javascript execution interrupted")

// Engine evaluates expression mappings and command lines in JavaScript.
type Engine struct {
	mu      sync.Mutex
	runtime *goja.Runtime
	timeout time.Duration
	closed  bool

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

// New creates a JavaScript engine with feed() and console.log().
func New(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(e)
	}
	e.initRuntime()
	return e
}

func (e *Engine) initRuntime() {
	e.runtime = goja.New()
	e.runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	e.runtime.Set("feed", func(call goja.FunctionCall) goja.Value {
		e.keys.WriteString(call.Argument(0).String())
		return goja.Undefined()
	})

	console := e.runtime.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = fmt.Sprintf("%v", arg.Export())
		}
		e.output.WriteString(strings.Join(parts, " "))
		e.output.WriteByte('\n')
		return goja.Undefined()
	})
	e.runtime.Set("console", console)
}

// jsEnv is the "vim" global.
type jsEnv struct {
	Mode     string `json:"mode"`
	Count    int    `json:"count"`
	Count1   int    `json:"count1"`
	Register string `json:"register"`
	Pending  string `json:"pending"`
}

// Eval implements script.Engine.
func (e *Engine) Eval(ctx context.Context, expr string, env script.Env) (string, error) {
	var out string
	err := e.run(ctx, env, func() error {
		v, err := e.runtime.RunString(expr)
		if err != nil {
			return err
		}
		out = toString(v)
		return nil
	})
	return out, err
}

// ExecuteEx implements script.Engine. ":normal" lines feed their keys;
// anything else, with an optional leading "js", runs as a script that may
// call feed(keys) and console.log(...).
func (e *Engine) ExecuteEx(ctx context.Context, line string, env script.Env) (script.Result, error) {
	if keys, ok := script.ParseNormal(line); ok {
		return script.Result{Keys: keys}, nil
	}
	src := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(src, "js "); ok {
		src = rest
	}

	var res script.Result
	err := e.run(ctx, env, func() error {
		e.keys.Reset()
		e.output.Reset()
		program, err := goja.Compile("cmdline", src, true)
		if err != nil {
			return fmt.Errorf("syntax error: %w", err)
		}
		_, err = e.runtime.RunProgram(program)
		res = script.Result{Keys: e.keys.String(), Output: e.output.String()}
		return err
	})
	return res, err
}

func (e *Engine) run(ctx context.Context, env script.Env, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return script.ErrEngineClosed
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			e.runtime.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	e.runtime.ClearInterrupt()

	if err := e.runtime.Set("vim", jsEnv{
		Mode:     env.Mode,
		Count:    env.Count,
		Count1:   env.Count1(),
		Register: env.RegisterName(),
		Pending:  env.Pending,
	}); err != nil {
		return err
	}

	err := fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
	}
	if err != nil {
		return fmt.Errorf("js: %w", err)
	}
	return nil
}

func toString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if b, ok := v.Export().(bool); ok {
		if b {
			return "1"
		}
		return "0"
	}
	return v.String()
}

// Close releases the runtime.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
