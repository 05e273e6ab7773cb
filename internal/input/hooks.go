package input

import (
	"slices"
	"sync"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/logging"
)

// Hook intercepts keystroke processing.
type Hook interface {
	// PreKey is called before a typed key is processed. Return true to
	// consume the key; it is then neither recorded nor interpreted.
	PreKey(event *key.Event, state SurfaceState) bool

	// PostKey is called after a typed key was processed.
	PostKey(event key.Event, outcome *Outcome, state SurfaceState)

	// PreExecute is called before a completed command runs. Return true
	// to consume it; mode transitions still happen.
	PreExecute(cmd *command.Command, state SurfaceState) bool
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHighest runs before all other hooks.
	HookPriorityHighest HookPriority = -1000
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
	// HookPriorityLowest runs after all other hooks.
	HookPriorityLowest HookPriority = 1000
)

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager manages hooks with support for priorities and named
// registration. Hooks run on the goroutine processing the key and must
// not submit keys to the surface they are called for.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	sorted  bool
	byName  map[string]HookID
	enabled bool
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{
		sorted:  true,
		byName:  make(map[string]HookID),
		enabled: true,
	}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithPriority adds a hook with specified priority.
func (m *HookManager) RegisterWithPriority(hook Hook, priority HookPriority) HookID {
	return m.RegisterWithOptions(hook, "", priority)
}

// RegisterNamed adds a hook with a name for later reference. A hook
// registered under the same name is replaced.
func (m *HookManager) RegisterNamed(hook Hook, name string) HookID {
	return m.RegisterWithOptions(hook, name, HookPriorityNormal)
}

// RegisterWithOptions adds a hook with all options specified.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byName[name]; ok && name != "" {
		m.removeLocked(old)
	}

	m.nextID++
	id := m.nextID
	m.hooks = append(m.hooks, HookRegistration{
		ID:       id,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	if name != "" {
		m.byName[name] = id
	}
	m.sorted = false
	return id
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

// UnregisterByName removes a hook by name.
func (m *HookManager) UnregisterByName(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byName[name]
	if !ok {
		return false
	}
	return m.removeLocked(id)
}

func (m *HookManager) removeLocked(id HookID) bool {
	i := slices.IndexFunc(m.hooks, func(r HookRegistration) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	if name := m.hooks[i].Name; name != "" {
		delete(m.byName, name)
	}
	m.hooks = slices.Delete(m.hooks, i, i+1)
	return true
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// IsEnabled returns whether hooks are enabled.
func (m *HookManager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in execution order.
func (m *HookManager) List() []HookRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSorted()
	return slices.Clone(m.hooks)
}

// Clear removes all hooks.
func (m *HookManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = nil
	m.byName = make(map[string]HookID)
	m.sorted = true
}

// ensureSorted sorts hooks by priority if needed. Callers hold m.mu.
func (m *HookManager) ensureSorted() {
	if m.sorted {
		return
	}
	slices.SortStableFunc(m.hooks, func(a, b HookRegistration) int {
		return int(a.Priority) - int(b.Priority)
	})
	m.sorted = true
}

// snapshot returns the hooks to run, or nil when disabled. Hooks run
// outside the lock so they may register or remove hooks.
func (m *HookManager) snapshot() []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	m.ensureSorted()
	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// RunPreKey runs all PreKey hooks in priority order.
// Returns true if any hook consumed the key.
func (m *HookManager) RunPreKey(event *key.Event, state SurfaceState) bool {
	for _, hook := range m.snapshot() {
		if hook.PreKey(event, state) {
			return true
		}
	}
	return false
}

// RunPostKey runs all PostKey hooks in priority order.
func (m *HookManager) RunPostKey(event key.Event, outcome *Outcome, state SurfaceState) {
	for _, hook := range m.snapshot() {
		hook.PostKey(event, outcome, state)
	}
}

// RunPreExecute runs all PreExecute hooks in priority order.
// Returns true if any hook consumed the command.
func (m *HookManager) RunPreExecute(cmd *command.Command, state SurfaceState) bool {
	for _, hook := range m.snapshot() {
		if hook.PreExecute(cmd, state) {
			return true
		}
	}
	return false
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreKey is a no-op that does not consume keys.
func (BaseHook) PreKey(*key.Event, SurfaceState) bool { return false }

// PostKey is a no-op.
func (BaseHook) PostKey(key.Event, *Outcome, SurfaceState) {}

// PreExecute is a no-op that does not consume commands.
func (BaseHook) PreExecute(*command.Command, SurfaceState) bool { return false }

// FuncHook wraps functions into a Hook interface implementation.
type FuncHook struct {
	PreKeyFunc     func(*key.Event, SurfaceState) bool
	PostKeyFunc    func(key.Event, *Outcome, SurfaceState)
	PreExecuteFunc func(*command.Command, SurfaceState) bool
}

// PreKey calls PreKeyFunc if set.
func (h FuncHook) PreKey(event *key.Event, state SurfaceState) bool {
	if h.PreKeyFunc != nil {
		return h.PreKeyFunc(event, state)
	}
	return false
}

// PostKey calls PostKeyFunc if set.
func (h FuncHook) PostKey(event key.Event, outcome *Outcome, state SurfaceState) {
	if h.PostKeyFunc != nil {
		h.PostKeyFunc(event, outcome, state)
	}
}

// PreExecute calls PreExecuteFunc if set.
func (h FuncHook) PreExecute(cmd *command.Command, state SurfaceState) bool {
	if h.PreExecuteFunc != nil {
		return h.PreExecuteFunc(cmd, state)
	}
	return false
}

// LoggingHook logs every key and command at debug level.
type LoggingHook struct {
	BaseHook
	Logger *logging.Logger
}

// PreKey logs the key.
func (h LoggingHook) PreKey(event *key.Event, state SurfaceState) bool {
	if h.Logger != nil {
		h.Logger.Debug("key", "surface", state.ID, "key", event.VimString(), "mode", state.Mode)
	}
	return false
}

// PostKey logs the outcome.
func (h LoggingHook) PostKey(event key.Event, outcome *Outcome, state SurfaceState) {
	if h.Logger != nil {
		h.Logger.Debug("outcome", "surface", state.ID, "key", event.VimString(),
			"status", outcome.Status, "commands", len(outcome.Commands), "pending", outcome.Pending)
	}
}

// PreExecute logs the command.
func (h LoggingHook) PreExecute(cmd *command.Command, state SurfaceState) bool {
	if h.Logger != nil {
		h.Logger.Debug("execute", "surface", state.ID, "command", cmd.String())
	}
	return false
}

// FilterHook filters keys or commands based on predicates.
type FilterHook struct {
	BaseHook

	// KeyFilter returns true to consume a key.
	KeyFilter func(*key.Event, SurfaceState) bool

	// CommandFilter returns true to consume a command.
	CommandFilter func(*command.Command, SurfaceState) bool
}

// PreKey applies the key filter.
func (h FilterHook) PreKey(event *key.Event, state SurfaceState) bool {
	if h.KeyFilter != nil {
		return h.KeyFilter(event, state)
	}
	return false
}

// PreExecute applies the command filter.
func (h FilterHook) PreExecute(cmd *command.Command, state SurfaceState) bool {
	if h.CommandFilter != nil {
		return h.CommandFilter(cmd, state)
	}
	return false
}
