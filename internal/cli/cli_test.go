package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// execute runs the root command with a configuration file that does not
// exist, so only defaults apply.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cfg := filepath.Join(t.TempDir(), "missing.toml")
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestReplayText(t *testing.T) {
	out, _, err := execute(t, "replay", "3d2w")
	require.NoError(t, err)
	assert.Contains(t, out, "6 operator.delete motion.wordForward")
	assert.Contains(t, out, "status:")
	assert.Contains(t, out, "normal")
}

func TestReplayJSON(t *testing.T) {
	out, _, err := execute(t, "replay", "--format", "json", "qaddjq", "2@a")
	require.NoError(t, err)

	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "executed", r.Status)
	assert.Equal(t, "normal", r.Mode)
	assert.Equal(t, 9, r.CommandCount)
	require.Len(t, r.Commands, 9)
	assert.Equal(t, "macro.record", r.Commands[0].Action)
	assert.Equal(t, "macro.play", r.Commands[4].Action)
	assert.Equal(t, 2, r.Commands[4].Count)

	deletes := 0
	for _, c := range r.Commands {
		if c.Action == "edit.deleteLine" {
			deletes++
		}
	}
	assert.Equal(t, 3, deletes)
	assert.Empty(t, r.Errors)
}

func TestReplayYAMLPerKey(t *testing.T) {
	out, _, err := execute(t, "replay", "--format", "yaml", "--per-key", `"ayy`)
	require.NoError(t, err)

	var reports []Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 4)
	assert.Equal(t, "pending", reports[0].Status)
	assert.Equal(t, "pending", reports[2].Status)
	assert.Equal(t, "executed", reports[3].Status)
	require.Len(t, reports[3].Commands, 1)
	assert.Equal(t, "a", reports[3].Commands[0].Register)
}

func TestReplayInvalid(t *testing.T) {
	out, _, err := execute(t, "replay", "--format", "json", "dQ")
	require.NoError(t, err)

	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "invalid", r.Status)
	assert.NotEmpty(t, r.Errors)
}

func TestReplayMappingAndTimeout(t *testing.T) {
	out, _, err := execute(t, "replay", "--format", "json",
		"--map", "n:,a=dd", "--map", `<Leader>y=yy`, `,\y`)
	require.NoError(t, err)

	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Commands, 2)
	assert.Equal(t, "motion.repeatFindReverse", r.Commands[0].Action)
	assert.Equal(t, "edit.yankLines", r.Commands[1].Action)

	out, _, err = execute(t, "replay", "--format", "json", "--map", "n:,a=dd", "--timeout=false", ",")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "pending", r.Status)
}

func TestReplayStartMode(t *testing.T) {
	out, _, err := execute(t, "replay", "--format", "json", "--mode", "insert", "ab<Esc>")
	require.NoError(t, err)

	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "normal", r.Mode)
	require.Len(t, r.Commands, 3)
	assert.Equal(t, "insert.char", r.Commands[0].Action)
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no keys", []string{"replay"}},
		{"bad notation", []string{"replay", "\xff"}},
		{"bad format", []string{"replay", "--format", "xml", "dd"}},
		{"bad mapping", []string{"replay", "--map", "nodelimiter", "dd"}},
		{"bad mode", []string{"replay", "--mode", "emacs", "dd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestKeys(t *testing.T) {
	out, _, err := execute(t, "keys", "--modes", "n", "g")
	require.NoError(t, err)
	assert.Contains(t, out, "gg")
	assert.Contains(t, out, "motion.firstLine")
	assert.NotContains(t, out, "motion.wordForward")

	out, _, err = execute(t, "keys", "--filter", "operator.delete")
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Contains(t, line, "operator.delete")
	}

	_, errOut, err := execute(t, "keys", "--mappings")
	require.NoError(t, err)
	assert.Contains(t, errOut, "no bindings found")
}

// scriptedScreen types keys as soon as the session initializes the screen.
type scriptedScreen struct {
	tcell.SimulationScreen
	keys []rune
}

func (s *scriptedScreen) Init() error {
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	for _, r := range s.keys {
		s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	return nil
}

func TestTTYSession(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[macro]\nstore = \"none\"\n\n[input]\ntimeout_ms = 50\n"), 0o644))

	screen := &scriptedScreen{SimulationScreen: tcell.NewSimulationScreen(""), keys: []rune("xZQ")}
	opts := &ttyOptions{globalOptions: &globalOptions{configPath: cfgPath}}
	cmd := NewTTYCommand(opts.globalOptions)

	done := make(chan error, 1)
	go func() { done <- runTTY(cmd, opts, screen) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tty session did not quit")
	}
}
