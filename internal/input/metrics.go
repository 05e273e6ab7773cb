package input

import (
	"sync"
	"sync/atomic"
	"time"
)

// maxLatencySamples is the size of the latency ring buffer.
const maxLatencySamples = 1000

// Metrics tracks keystroke processing across all surfaces.
type Metrics struct {
	keysTotal        atomic.Uint64
	macroKeys        atomic.Uint64
	commandsTotal    atomic.Uint64
	invalidSequences atomic.Uint64
	executorFailures atomic.Uint64
	expansions       atomic.Uint64
	forcedResolves   atomic.Uint64
	hookConsumptions atomic.Uint64

	mu         sync.Mutex
	latencies  [maxLatencySamples]time.Duration
	samples    int
	latencyIdx int

	peakLatency atomic.Int64
	startTime   time.Time
	enabled     atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether metrics collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m.enabled.Load()
}

// RecordKey records a submitted key with its processing time.
func (m *Metrics) RecordKey(latency time.Duration) {
	if !m.enabled.Load() {
		return
	}
	m.keysTotal.Add(1)

	ns := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if ns <= current || m.peakLatency.CompareAndSwap(current, ns) {
			break
		}
	}

	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % maxLatencySamples
	m.samples = min(m.samples+1, maxLatencySamples)
	m.mu.Unlock()
}

func (m *Metrics) count(c *atomic.Uint64) {
	if m.enabled.Load() {
		c.Add(1)
	}
}

// RecordMacroKey records a key fed by macro playback.
func (m *Metrics) RecordMacroKey() { m.count(&m.macroKeys) }

// RecordCommand records a completed command.
func (m *Metrics) RecordCommand() { m.count(&m.commandsTotal) }

// RecordInvalid records a discarded key sequence.
func (m *Metrics) RecordInvalid() { m.count(&m.invalidSequences) }

// RecordExecutorFailure records a command the executor rejected.
func (m *Metrics) RecordExecutorFailure() { m.count(&m.executorFailures) }

// RecordExpansion records a mapping expansion.
func (m *Metrics) RecordExpansion() { m.count(&m.expansions) }

// RecordForcedResolve records a host timeout forcing an ambiguous sequence.
func (m *Metrics) RecordForcedResolve() { m.count(&m.forcedResolves) }

// RecordHookConsumption records when a hook consumes a key or command.
func (m *Metrics) RecordHookConsumption() { m.count(&m.hookConsumptions) }

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	KeysTotal        uint64
	MacroKeys        uint64
	CommandsTotal    uint64
	InvalidSequences uint64
	ExecutorFailures uint64
	Expansions       uint64
	ForcedResolves   uint64
	HookConsumptions uint64

	AvgKeyLatency  time.Duration
	MaxKeyLatency  time.Duration
	PeakKeyLatency time.Duration

	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics. Average and
// maximum latency cover the most recent keys.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		KeysTotal:        m.keysTotal.Load(),
		MacroKeys:        m.macroKeys.Load(),
		CommandsTotal:    m.commandsTotal.Load(),
		InvalidSequences: m.invalidSequences.Load(),
		ExecutorFailures: m.executorFailures.Load(),
		Expansions:       m.expansions.Load(),
		ForcedResolves:   m.forcedResolves.Load(),
		HookConsumptions: m.hookConsumptions.Load(),
		PeakKeyLatency:   time.Duration(m.peakLatency.Load()),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Uptime = time.Since(m.startTime)
	if m.samples == 0 {
		return snap
	}
	var total time.Duration
	for _, l := range m.latencies[:m.samples] {
		total += l
		snap.MaxKeyLatency = max(snap.MaxKeyLatency, l)
	}
	snap.AvgKeyLatency = total / time.Duration(m.samples)
	return snap
}

// Reset clears all counters and samples.
func (m *Metrics) Reset() {
	m.keysTotal.Store(0)
	m.macroKeys.Store(0)
	m.commandsTotal.Store(0)
	m.invalidSequences.Store(0)
	m.executorFailures.Store(0)
	m.expansions.Store(0)
	m.forcedResolves.Store(0)
	m.hookConsumptions.Store(0)
	m.peakLatency.Store(0)

	m.mu.Lock()
	m.samples, m.latencyIdx = 0, 0
	m.startTime = time.Now()
	m.mu.Unlock()
}
