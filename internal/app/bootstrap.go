package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/modalkeys/internal/config"
	"github.com/dshills/modalkeys/internal/input"
	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/macro"
	"github.com/dshills/modalkeys/internal/input/macro/sqlstore"
	"github.com/dshills/modalkeys/internal/input/script"
	"github.com/dshills/modalkeys/internal/input/script/js"
	"github.com/dshills/modalkeys/internal/input/script/lua"
	"github.com/dshills/modalkeys/internal/logging"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app *Application
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{app: app}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initKeymaps,
		b.initMacros,
		b.initScript,
		b.initDispatcher,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

func (b *bootstrapper) done(component string) {
	b.app.initOrder = append(b.app.initOrder, component)
}

// initConfig loads the configuration file and environment overrides.
func (b *bootstrapper) initConfig() error {
	cfg := b.app.opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(b.app.opts.ConfigPath, b.app.opts.Environ)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
	} else if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.config = cfg
	b.done("config")
	return nil
}

func (b *bootstrapper) initLogger() error {
	if b.app.opts.LogOutput == nil {
		b.app.logger = logging.NullLogger
	} else {
		lc := logging.DefaultLoggerConfig()
		lc.Level = logging.ParseLogLevel(b.app.config.Log.Level)
		lc.Format = b.app.config.Log.Format
		lc.Output = b.app.opts.LogOutput
		b.app.logger = logging.NewLogger(lc)
	}
	b.done("logger")
	return nil
}

// initKeymaps builds the registry with the default bindings and the
// configured mapping files.
func (b *bootstrapper) initKeymaps() error {
	cfg := b.app.config
	policy, err := cfg.Policy()
	if err != nil {
		return &InitError{Component: "keymaps", Err: err}
	}
	b.app.commands = command.Builtins()
	b.app.keymaps = keymap.NewRegistry(policy)
	if err := keymap.LoadDefaults(b.app.keymaps, b.app.commands); err != nil {
		return &InitError{Component: "keymaps", Err: err}
	}

	b.app.mappings = config.NewMappingFiles(b.app.keymaps, b.app.commands, cfg.Mapping.Leader, b.app.logger)
	if err := b.app.mappings.LoadAll(cfg.MappingFiles()); err != nil {
		return &InitError{Component: "keymaps", Err: err}
	}
	b.done("keymaps")
	return nil
}

// initMacros creates the registers and restores them from the store.
func (b *bootstrapper) initMacros() error {
	cfg := b.app.config
	b.app.recorder = macro.NewRecorder()

	store, err := openStore(cfg)
	if err != nil {
		return &InitError{Component: "macros", Err: err}
	}
	b.app.store = store
	b.done("macros")

	if store != nil {
		if err := store.Load(b.app.recorder); err != nil {
			return &InitError{Component: "macros", Err: err}
		}
		b.app.logger.Debug("macros loaded", "registers", len(b.app.recorder.ListRegisters()))
	}
	return nil
}

func openStore(cfg *config.Config) (macro.Store, error) {
	if cfg.Macro.Store == "none" {
		return nil, nil
	}
	path, err := cfg.MacroPath()
	if err != nil {
		return nil, err
	}
	switch cfg.Macro.Store {
	case "json":
		return macro.JSONFile{Path: path}, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		return sqlstore.New(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Macro.Store)
}

// initScript creates the engine for expression mappings and command lines.
func (b *bootstrapper) initScript() error {
	engine, err := NewEngine(b.app.config.Script.Engine)
	if err != nil {
		return &InitError{Component: "script", Err: err}
	}
	b.app.engine = engine
	b.done("script")
	return nil
}

// NewEngine returns the script engine called name, or nil for "none".
func NewEngine(name string) (script.Engine, error) {
	switch name {
	case "lua":
		return lua.New(), nil
	case "js":
		return js.New(), nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

func (b *bootstrapper) initDispatcher() error {
	cfg := b.app.config
	start, err := cfg.StartMode()
	if err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}

	dc := input.DefaultConfig()
	dc.StartMode = start
	dc.MaxMapDepth = cfg.Mapping.MaxDepth
	dc.MacroMaxDepth = cfg.Macro.MaxDepth
	dc.MacroKeyBudget = cfg.Macro.KeyBudget
	dc.Leader = cfg.Mapping.Leader

	opts := []input.Option{
		input.WithRecorder(b.app.recorder),
		input.WithLogger(b.app.logger),
	}
	if b.app.opts.Executor != nil {
		opts = append(opts, input.WithExecutor(b.app.opts.Executor))
	}
	if b.app.engine != nil {
		opts = append(opts, input.WithScriptEngine(b.app.engine))
	}

	d, err := input.New(dc, b.app.keymaps, b.app.commands, opts...)
	if err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}
	b.app.dispatcher = d
	b.done("dispatcher")
	return nil
}

// initWatcher watches the mapping files for changes when enabled.
func (b *bootstrapper) initWatcher() error {
	files := b.app.config.MappingFiles()
	if !b.app.opts.Watch || len(files) == 0 {
		return nil
	}

	mappings, logger := b.app.mappings, b.app.logger
	w, err := config.NewWatcher(func(path string) {
		if err := mappings.Load(path); err != nil {
			logger.Warn("mapping reload failed", "path", path, "error", err)
		}
	}, config.WithLogger(logger))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	b.app.watcher = w
	b.done("watcher")

	for _, f := range files {
		if err := w.Watch(f); err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
	}
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.app.initOrder) - 1; i >= 0; i-- {
		_ = b.app.closeComponent(b.app.initOrder[i])
	}
	b.app.initOrder = nil
}
