// Package app wires a Dispatcher together from configuration: the
// keymap with its defaults and mapping files, the macro registers and
// their store, the script engine and the logger. Hosts such as the CLI
// create one Application and drive its dispatcher.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/dshills/modalkeys/internal/config"
	"github.com/dshills/modalkeys/internal/input"
	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/macro"
	"github.com/dshills/modalkeys/internal/input/script"
	"github.com/dshills/modalkeys/internal/logging"
)

// Application owns every component behind one dispatcher.
type Application struct {
	mu     sync.Mutex
	closed bool

	config   *config.Config
	logger   *logging.Logger
	commands *command.Registry
	keymaps  *keymap.Registry
	mappings *config.MappingFiles
	watcher  *config.Watcher
	recorder *macro.Recorder
	store    macro.Store
	engine   script.Engine

	dispatcher *input.Dispatcher

	opts      Options
	initOrder []string
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses defaults and the
	// environment only.
	ConfigPath string

	// Environ holds environment overrides in os.Environ() format.
	Environ []string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config

	// Executor performs the commands the dispatcher produces.
	Executor input.Executor

	// LogOutput receives log records. Nil discards them.
	LogOutput io.Writer

	// Watch reloads mapping files when they change while Watch runs.
	Watch bool
}

// New creates an Application. On failure every component already
// created is closed again.
func New(opts Options) (*Application, error) {
	a := &Application{opts: opts}
	b := newBootstrapper(a)
	if err := b.bootstrap(); err != nil {
		return nil, err
	}
	a.logger.Info("application ready",
		"commands", a.commands.Len(),
		"mapping_files", len(a.mappings.Loaded()),
		"engine", a.config.Script.Engine,
		"store", a.config.Macro.Store)
	return a, nil
}

// Dispatcher returns the dispatcher.
func (a *Application) Dispatcher() *input.Dispatcher { return a.dispatcher }

// Config returns the effective configuration.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger { return a.logger }

// Commands returns the built-in command definitions.
func (a *Application) Commands() *command.Registry { return a.commands }

// Keymaps returns the mapping registry.
func (a *Application) Keymaps() *keymap.Registry { return a.keymaps }

// OpenSurface opens a surface in the configured start mode.
func (a *Application) OpenSurface(opts ...input.SurfaceOption) (input.SurfaceID, error) {
	return a.dispatcher.OpenSurface(opts...)
}

// Watch reloads mapping files as they change until ctx is done. It
// returns at once when watching is disabled.
func (a *Application) Watch(ctx context.Context) error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Run(ctx)
}

// SaveMacros writes the registers to the macro store, if one is
// configured.
func (a *Application) SaveMacros() error {
	if a.store == nil {
		return nil
	}
	return a.store.Save(a.recorder)
}

// Close saves the macro registers and releases every component. It is
// safe to call more than once.
func (a *Application) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	errs := make(map[string]error)
	if err := a.SaveMacros(); err != nil {
		errs["macros"] = err
	}
	for i := len(a.initOrder) - 1; i >= 0; i-- {
		if err := a.closeComponent(a.initOrder[i]); err != nil {
			errs[a.initOrder[i]] = err
		}
	}
	if len(errs) > 0 {
		return &ShutdownError{Errors: errs}
	}
	return nil
}

// closeComponent releases a single component.
func (a *Application) closeComponent(component string) error {
	switch component {
	case "watcher":
		if a.watcher != nil {
			return a.watcher.Close()
		}
	case "macros":
		if c, ok := a.store.(io.Closer); ok {
			return c.Close()
		}
	case "script":
		if a.engine != nil {
			return a.engine.Close()
		}
	}
	return nil
}
