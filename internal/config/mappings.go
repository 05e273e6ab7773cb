package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/logging"
)

// MappingFiles installs mapping files into a keymap registry and can
// reinstall them when they change. Each file's mappings belong to a
// global owner named after the file, so a reload replaces exactly that
// file's mappings. Mappings that name an explicit owner are not removed
// on reload.
type MappingFiles struct {
	mu       sync.Mutex
	registry *keymap.Registry
	commands *command.Registry
	leader   string
	logger   *logging.Logger
	loaded   map[string]bool
}

// NewMappingFiles creates a loader for registry. A non-empty leader is
// used for files that do not set their own.
func NewMappingFiles(registry *keymap.Registry, commands *command.Registry, leader string, logger *logging.Logger) *MappingFiles {
	if logger == nil {
		logger = logging.NullLogger
	}
	return &MappingFiles{
		registry: registry,
		commands: commands,
		leader:   leader,
		logger:   logger.WithComponent("mappings"),
		loaded:   make(map[string]bool),
	}
}

// FileOwner is the owner of the mappings loaded from path.
func FileOwner(path string) keymap.Owner {
	return keymap.Owner{Kind: keymap.OwnerGlobal, Name: "file:" + path}
}

// Load installs or reinstalls the mappings of one file. A file that
// cannot be read, decoded or resolved leaves the previous mappings in
// place. The swap is atomic for concurrent lookups.
func (m *MappingFiles) Load(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	f, err := keymap.LoadFile(abs)
	if err != nil {
		return err
	}
	if f.Leader == "" {
		f.Leader = m.leader
	}

	owner := FileOwner(abs)
	ms, err := keymap.Compile(m.commands, f, abs, owner)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.registry.Replace(owner, ms)
	if err != nil {
		return err
	}
	m.loaded[abs] = true
	m.logger.Info("mapping file loaded", "path", abs, "mappings", len(f.Mappings), "replaced", removed)
	return nil
}

// LoadAll loads every path, returning the first error after trying all.
func (m *MappingFiles) LoadAll(paths []string) error {
	var first error
	for _, p := range paths {
		if err := m.Load(p); err != nil {
			m.logger.Warn("mapping file failed", "path", p, "error", err)
			if first == nil {
				first = fmt.Errorf("loading %s: %w", p, err)
			}
		}
	}
	return first
}

// Loaded returns the absolute paths currently installed.
func (m *MappingFiles) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.loaded))
	for p := range m.loaded {
		out = append(out, p)
	}
	return out
}
