package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNormal(t *testing.T) {
	tests := []struct {
		line string
		keys string
		ok   bool
	}{
		{"normal dd", "dd", true},
		{"norm! 3x", "3x", true},
		{":normal   A;<Esc>", "A;<Esc>", true},
		{"norma gg", "gg", true},
		{"nor dd", "", false},
		{"normally x", "", false},
		{"lua print(1)", "", false},
		{"normal", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			keys, ok := ParseNormal(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	var env Env
	assert.Equal(t, 1, env.Count1())
	assert.Equal(t, `"`, env.RegisterName())

	env = Env{Count: 4, Register: 'a'}
	assert.Equal(t, 4, env.Count1())
	assert.Equal(t, "a", env.RegisterName())
}
