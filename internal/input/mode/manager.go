package mode

import (
	"fmt"
	"sync"
)

// Manager tracks the mode of one editing surface and coordinates
// transitions. It implements Reporter for hosts that have no mode
// bookkeeping of their own.
type Manager struct {
	mu sync.RWMutex

	current  Mode
	previous Mode

	// modeStack holds the modes to return to, e.g. the mode that was
	// active when operator-pending was entered.
	modeStack []Mode

	// callbacks are notified on mode changes.
	callbacks []ChangeCallback
}

// ChangeCallback is called when the mode changes.
type ChangeCallback func(from, to Mode)

// NewManager creates a manager starting in the given mode.
// None defaults to Normal.
func NewManager(initial Mode) *Manager {
	if initial == None {
		initial = Normal
	}
	return &Manager{
		current:   initial,
		modeStack: make([]Mode, 0, 4),
	}
}

// Mode returns the current mode.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Previous returns the mode before the current one.
func (m *Manager) Previous() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previous
}

// RequestMode switches to a different mode.
func (m *Manager) RequestMode(next Mode) error {
	if next == None || int(next) >= len(modeNames) {
		return fmt.Errorf("unknown mode: %s", next)
	}
	m.mu.Lock()
	from, callbacks := m.switchLocked(next)
	m.mu.Unlock()

	m.notify(callbacks, from, next)
	return nil
}

// Push saves the current mode and switches to a new one.
// Use Pop to restore the saved mode.
func (m *Manager) Push(next Mode) error {
	if next == None {
		return fmt.Errorf("unknown mode: %s", next)
	}
	m.mu.Lock()
	m.modeStack = append(m.modeStack, m.current)
	from, callbacks := m.switchLocked(next)
	m.mu.Unlock()

	m.notify(callbacks, from, next)
	return nil
}

// Pop restores the most recently pushed mode.
// Returns an error if the mode stack is empty.
func (m *Manager) Pop() (Mode, error) {
	m.mu.Lock()
	if len(m.modeStack) == 0 {
		m.mu.Unlock()
		return None, fmt.Errorf("mode stack is empty")
	}
	next := m.modeStack[len(m.modeStack)-1]
	m.modeStack = m.modeStack[:len(m.modeStack)-1]
	from, callbacks := m.switchLocked(next)
	m.mu.Unlock()

	m.notify(callbacks, from, next)
	return next, nil
}

// StackDepth returns the number of modes on the stack.
func (m *Manager) StackDepth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.modeStack)
}

// OnChange registers a callback for mode changes.
// Returns a function to unregister the callback.
func (m *Manager) OnChange(callback ChangeCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
	index := len(m.callbacks) - 1

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Nil out instead of removing so other indices stay valid.
		if index < len(m.callbacks) {
			m.callbacks[index] = nil
		}
	}
}

// switchLocked updates state and returns the callbacks to notify.
// Callers must hold m.mu.
func (m *Manager) switchLocked(next Mode) (Mode, []ChangeCallback) {
	from := m.current
	m.previous = from
	m.current = next
	if next == Normal {
		// Escaping to Normal abandons any saved return modes.
		m.modeStack = m.modeStack[:0]
	}
	if from == next {
		return from, nil
	}
	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	return from, callbacks
}

func (m *Manager) notify(callbacks []ChangeCallback, from, to Mode) {
	for _, cb := range callbacks {
		if cb != nil {
			cb(from, to)
		}
	}
}
