package js

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkeys/internal/input/script"
)

func TestEval(t *testing.T) {
	e := New()
	defer e.Close()

	env := script.Env{Mode: "visual", Count: 0, Register: 'b'}
	tests := []struct {
		expr string
		want string
	}{
		{`"dd"`, "dd"},
		{`vim.count1 + "j"`, "1j"},
		{`vim.mode === "visual" ? "o" : "v"`, "o"},
		{`'"' + vim.register + "y"`, `"by`},
		{`undefined`, ""},
		{`false`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Eval(context.Background(), tt.expr, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecuteEx(t *testing.T) {
	e := New()
	defer e.Close()

	res, err := e.ExecuteEx(context.Background(), "norm! >>", script.Env{})
	require.NoError(t, err)
	assert.Equal(t, ">>", res.Keys)

	res, err = e.ExecuteEx(context.Background(),
		`js for (let i = 0; i < vim.count; i++) feed("p"); console.log("pasted", vim.count)`,
		script.Env{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, "pp", res.Keys)
	assert.Equal(t, "pasted 2\n", res.Output)

	_, err = e.ExecuteEx(context.Background(), "js (", script.Env{})
	assert.ErrorContains(t, err, "syntax error")
}

func TestInterrupt(t *testing.T) {
	e := New(WithExecutionTimeout(50 * time.Millisecond))
	defer e.Close()

	_, err := e.ExecuteEx(context.Background(), "for (;;) {}", script.Env{})
	assert.ErrorIs(t, err, ErrInterrupted)

	got, err := e.Eval(context.Background(), `"ok"`, script.Env{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestCancelledContext(t *testing.T) {
	e := New()
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Eval(ctx, `1`, script.Env{})
	assert.ErrorIs(t, err, context.Canceled)
}
