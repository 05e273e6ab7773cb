package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/mode"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	m, err := cfg.StartMode()
	require.NoError(t, err)
	assert.Equal(t, mode.Normal, m)
	assert.Equal(t, time.Second, cfg.Timeout())
	assert.Equal(t, 1000, cfg.Mapping.MaxDepth)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, keymap.DefaultPolicy(), p)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
[input]
start_mode = "insert"
timeout_ms = 250

[mapping]
max_depth = 20
owner_priority = ["global", "buffer"]
files = ["maps.toml"]

[macro]
store = "sqlite"
key_budget = 5000

[script]
engine = "js"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	m, _ := cfg.StartMode()
	assert.Equal(t, mode.Insert, m)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout())
	assert.Equal(t, 20, cfg.Mapping.MaxDepth)
	assert.Equal(t, []string{"maps.toml"}, cfg.MappingFiles())
	assert.Equal(t, "sqlite", cfg.Macro.Store)
	assert.Equal(t, 5000, cfg.Macro.KeyBudget)
	assert.Equal(t, 1000, cfg.Macro.MaxDepth, "defaults survive partial files")
	assert.Equal(t, "js", cfg.Script.Engine)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, keymap.Policy{keymap.OwnerGlobal, keymap.OwnerBuffer}, p)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
mapping:
  leader: ","
log:
  level: debug
  format: json
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ",", cfg.Mapping.Leader)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Logger().Enabled(0))
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[mapping]\nmax_depth = 20\n")
	env := []string{
		"HOME=/home/u",
		"MODALKEYS_MAPPING_MAX_DEPTH=50",
		"MODALKEYS_INPUT_SHOWCMD=off",
		"MODALKEYS_SCRIPT_ENGINE=none",
		`MODALKEYS_MAPPING_OWNER_PRIORITY=["plugin"]`,
	}
	cfg, err := Load(path, env)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Mapping.MaxDepth)
	assert.False(t, cfg.Input.ShowCmd)
	assert.Equal(t, "none", cfg.Script.Engine)
	assert.Equal(t, []string{"plugin"}, cfg.Mapping.OwnerPriority)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		env     []string
	}{
		{"syntax", "bad.toml", "[input\n", nil},
		{"unknown key", "c.toml", "[input]\nspeed = 1\n", nil},
		{"bad mode", "m.toml", "[input]\nstart_mode = \"emacs\"\n", nil},
		{"bad depth", "d.toml", "[mapping]\nmax_depth = 0\n", nil},
		{"bad store", "s.toml", "[macro]\nstore = \"redis\"\n", nil},
		{"bad policy", "p.toml", "[mapping]\nowner_priority = [\"nobody\"]\n", nil},
		{"format", "c.ini", "x=1", nil},
		{"bad env", "e.toml", "", []string{"MODALKEYS_MACRO_MAX_DEPTH=deep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(path, tt.env)
			assert.Error(t, err)
		})
	}
}

func TestValidationErrorIs(t *testing.T) {
	cfg := Default()
	cfg.Macro.KeyBudget = -1
	assert.ErrorIs(t, cfg.Validate(), ErrValidationFailed)
}

func TestEnvOverrides(t *testing.T) {
	got := EnvOverrides("MODALKEYS_", []string{
		"MODALKEYS_MACRO_KEY_BUDGET=0",
		"MODALKEYS_LOG_LEVEL=warn",
		"MODALKEYS_NOSECTION=1",
		"OTHER_X_Y=1",
	})
	assert.Equal(t, map[string]any{
		"macro": map[string]any{"key_budget": int64(0)},
		"log":   map[string]any{"level": "warn"},
	}, got)
}

func TestMacroPath(t *testing.T) {
	cfg := Default()
	cfg.Macro.Path = "/tmp/m.json"
	p, err := cfg.MacroPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/m.json", p)
}

const mapFile = `
leader = ","

[[map]]
mode = "n"
lhs = "<Leader>w"
action = "edit.deleteLine"

[[map]]
mode = "n"
lhs = "Y"
rhs = "y$"
noremap = true
`

func newMappingFiles(t *testing.T) (*keymap.Registry, *MappingFiles) {
	t.Helper()
	cmds := command.Builtins()
	r := keymap.NewRegistry(nil)
	require.NoError(t, keymap.LoadDefaults(r, cmds))
	return r, NewMappingFiles(r, cmds, "", nil)
}

func lookup(r *keymap.Registry, keys string) keymap.Match {
	return r.Lookup(mode.MapNormal, keymap.Scope{}, key.MustParseSequence(keys), true)
}

func TestMappingFilesLoadAndReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "maps.toml", mapFile)
	r, mf := newMappingFiles(t)

	require.NoError(t, mf.Load(path))
	m := lookup(r, ",w")
	require.Equal(t, keymap.MatchComplete, m.Kind)
	assert.Equal(t, "edit.deleteLine", m.Entry.Command.ID)
	assert.True(t, lookup(r, "Y").Entry.IsMapping())

	// The rewritten file drops Y; reloading removes it.
	writeFile(t, dir, "maps.toml", "[[map]]\nmode = \"n\"\nlhs = \"Q\"\nrhs = \"gq\"\n")
	require.NoError(t, mf.Load(path))
	assert.Equal(t, keymap.MatchNone, lookup(r, ",w").Kind)
	assert.Equal(t, keymap.MatchComplete, lookup(r, "Q").Kind)
	if m := lookup(r, "Y"); m.Entry != nil {
		assert.False(t, m.Entry.IsMapping(), "only the built-in Y remains")
	}
	assert.Len(t, mf.Loaded(), 1)
}

func TestMappingFilesBadFileKeepsOld(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "maps.toml", mapFile)
	r, mf := newMappingFiles(t)
	require.NoError(t, mf.Load(path))

	writeFile(t, dir, "maps.toml", "[[map]\n")
	assert.Error(t, mf.Load(path))
	assert.Equal(t, keymap.MatchComplete, lookup(r, ",w").Kind)

	// One bad entry rejects the whole file; the good entry before it is
	// not installed either.
	writeFile(t, dir, "maps.toml", "[[map]]\nmode = \"n\"\nlhs = \"Q\"\nrhs = \"gq\"\n\n[[map]]\nmode = \"n\"\nlhs = \"Z\"\naction = \"no.such\"\n")
	err := mf.Load(path)
	var parseErr *keymap.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Index)
	assert.Equal(t, keymap.MatchComplete, lookup(r, ",w").Kind)
	assert.True(t, lookup(r, "Y").Entry.IsMapping())
	if m := lookup(r, "Q"); m.Entry != nil {
		assert.False(t, m.Entry.IsMapping())
	}
	assert.Len(t, mf.Loaded(), 1)
}

func TestMappingFilesLoadAll(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.toml", mapFile)
	r, mf := newMappingFiles(t)

	err := mf.LoadAll([]string{filepath.Join(dir, "missing.toml"), good})
	assert.Error(t, err)
	assert.Equal(t, keymap.MatchComplete, lookup(r, ",w").Kind)
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "maps.toml", mapFile)
	other := writeFile(t, dir, "other.toml", "")

	changed := make(chan string, 4)
	w, err := NewWatcher(func(p string) { changed <- p }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(mapFile+"\n"), 0o644))

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherClosed(t *testing.T) {
	w, err := NewWatcher(func(string) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Watch(filepath.Join(t.TempDir(), "x.toml")), ErrWatcherClosed)
}
