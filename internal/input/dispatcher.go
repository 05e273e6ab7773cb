package input

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/macro"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/input/script"
	"github.com/dshills/modalkeys/internal/input/vim"
	"github.com/dshills/modalkeys/internal/logging"
)

const (
	// DefaultMaxMapDepth bounds mapping expansion, like Vim's 'maxmapdepth'.
	DefaultMaxMapDepth = 1000

	// DefaultMaxReportedCommands bounds Outcome.Commands.
	DefaultMaxReportedCommands = 10000
)

// Config configures the dispatcher.
type Config struct {
	// StartMode is the mode of surfaces whose mode the dispatcher tracks.
	StartMode mode.Mode

	// MaxMapDepth is the deepest mapping expansion allowed.
	MaxMapDepth int

	// MacroMaxDepth is the deepest nesting of macros playing macros.
	MacroMaxDepth int

	// MacroKeyBudget limits the keys one playback may feed. Zero means
	// unlimited.
	MacroKeyBudget int

	// Leader replaces <Leader> in mappings registered through the
	// dispatcher.
	Leader string

	// MaxReportedCommands is how many commands one Outcome lists. A macro
	// played a million times still runs every command.
	MaxReportedCommands int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StartMode:           mode.Normal,
		MaxMapDepth:         DefaultMaxMapDepth,
		MacroMaxDepth:       macro.DefaultMaxDepth,
		Leader:              keymap.DefaultLeader,
		MaxReportedCommands: DefaultMaxReportedCommands,
	}
}

// Dispatcher turns keystrokes into commands for any number of editing
// surfaces. The keymap registry and macro registers are shared; each
// surface has its own mode, command in progress and macro player.
//
// Keys for one surface are processed one at a time, start to finish.
// Different surfaces may be driven from different goroutines.
type Dispatcher struct {
	mu       sync.RWMutex
	surfaces map[SurfaceID]*surface

	config   Config
	keymaps  *keymap.Registry
	commands *command.Registry
	recorder *macro.Recorder
	executor Executor
	hooks    *HookManager
	metrics  *Metrics
	logger   *logging.Logger

	// scriptMu serializes the engine, which is single-threaded.
	scriptMu sync.Mutex
	engine   script.Engine

	escapeDef *command.Definition
	exDef     *command.Definition
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExecutor sets the collaborator that performs commands. Without
// one, commands are only reported in outcomes.
func WithExecutor(e Executor) Option {
	return func(d *Dispatcher) {
		d.executor = e
	}
}

// WithScriptEngine sets the engine for expression mappings and command
// lines. Without one, command lines go to the executor.
func WithScriptEngine(e script.Engine) Option {
	return func(d *Dispatcher) {
		d.engine = e
	}
}

// WithRecorder shares macro registers with other dispatchers or a store.
func WithRecorder(r *macro.Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the metrics tracker.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// New creates a dispatcher resolving keys against keymaps. commands must
// hold the built-in definitions.
func New(cfg Config, keymaps *keymap.Registry, commands *command.Registry, opts ...Option) (*Dispatcher, error) {
	def := DefaultConfig()
	if cfg.StartMode == mode.None {
		cfg.StartMode = def.StartMode
	}
	if cfg.MaxMapDepth <= 0 {
		cfg.MaxMapDepth = def.MaxMapDepth
	}
	if cfg.MacroMaxDepth <= 0 {
		cfg.MacroMaxDepth = def.MacroMaxDepth
	}
	if cfg.Leader == "" {
		cfg.Leader = def.Leader
	}
	if cfg.MaxReportedCommands <= 0 {
		cfg.MaxReportedCommands = def.MaxReportedCommands
	}

	d := &Dispatcher{
		surfaces: make(map[SurfaceID]*surface),
		config:   cfg,
		keymaps:  keymaps,
		commands: commands,
		recorder: macro.NewRecorder(),
		hooks:    NewHookManager(),
		metrics:  NewMetrics(),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("dispatcher")

	var ok bool
	if d.escapeDef, ok = commands.Lookup(command.IDEscape); !ok {
		return nil, fmt.Errorf("%w: %s", vim.ErrMissingDefinition, command.IDEscape)
	}
	if d.exDef, ok = commands.Lookup(command.IDExCommand); !ok {
		return nil, fmt.Errorf("%w: %s", vim.ErrMissingDefinition, command.IDExCommand)
	}
	if _, err := vim.NewBuilder(keymaps, commands, vim.Options{}); err != nil {
		return nil, err
	}
	return d, nil
}

// Hooks returns the hook manager.
func (d *Dispatcher) Hooks() *HookManager { return d.hooks }

// Metrics returns the metrics tracker.
func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

// Recorder returns the macro registers.
func (d *Dispatcher) Recorder() *macro.Recorder { return d.recorder }

// Keymaps returns the mapping registry.
func (d *Dispatcher) Keymaps() *keymap.Registry { return d.keymaps }

// OpenSurface creates a surface and returns its ID.
func (d *Dispatcher) OpenSurface(opts ...SurfaceOption) (SurfaceID, error) {
	o := surfaceOptions{start: d.config.StartMode}
	for _, opt := range opts {
		opt(&o)
	}
	if o.modes == nil {
		o.modes = mode.NewManager(o.start)
	}

	b, err := vim.NewBuilder(d.keymaps, d.commands, vim.Options{
		Scope:    keymap.Scope{Buffer: o.buffer},
		Recorder: d.recorder,
	})
	if err != nil {
		return "", err
	}
	s := &surface{
		id:      newSurfaceID(),
		buffer:  o.buffer,
		modes:   o.modes,
		builder: b,
		player: macro.NewPlayer(d.recorder,
			macro.WithMaxDepth(d.config.MacroMaxDepth),
			macro.WithKeyBudget(d.config.MacroKeyBudget)),
		lastMode: o.modes.Mode(),
	}

	d.mu.Lock()
	d.surfaces[s.id] = s
	d.mu.Unlock()

	d.logger.Debug("surface opened", "surface", s.id, "buffer", o.buffer, "mode", s.lastMode)
	return s.id, nil
}

// CloseSurface forgets a surface and stops its macro playback.
func (d *Dispatcher) CloseSurface(id SurfaceID) error {
	d.mu.Lock()
	s, ok := d.surfaces[id]
	delete(d.surfaces, id)
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSurface, id)
	}
	s.player.Cancel()
	d.logger.Debug("surface closed", "surface", id)
	return nil
}

// SetBuffer switches the buffer shown in a surface. The command in
// progress is discarded.
func (d *Dispatcher) SetBuffer(id SurfaceID, buffer string) error {
	s, err := d.surface(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = buffer
	s.builder.SetScope(keymap.Scope{Buffer: buffer})
	s.reset()
	return nil
}

// State returns a snapshot of a surface. It must not be called by the
// executor or a hook for the surface being processed; they receive the
// state as an argument.
func (d *Dispatcher) State(id SurfaceID) (SurfaceState, error) {
	s, err := d.surface(id)
	if err != nil {
		return SurfaceState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return d.state(s), nil
}

func (d *Dispatcher) surface(id SurfaceID) (*surface, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSurface, id)
	}
	return s, nil
}

func (d *Dispatcher) state(s *surface) SurfaceState {
	return SurfaceState{
		ID:           s.id,
		Buffer:       s.buffer,
		Mode:         s.modes.Mode(),
		BuilderState: s.builder.State(),
		Count:        s.builder.Count(),
		Register:     s.builder.Register(),
		Pending:      s.builder.Pending(),
		Recording:    d.recorder.CurrentRegister(),
		Replaying:    s.player.IsPlaying() || s.replaying > 0,
	}
}

// SubmitKey processes one keystroke. It is the single entry point for
// typed keys; macro playback feeds recorded keys through the same path.
//
// The error is only set for an unknown surface. Everything that goes
// wrong while interpreting the key is reported in the Outcome, after
// which the surface is idle again.
//
// Called with the context an Executor received, the key is queued
// behind the keys being processed and StatusQueued is returned.
func (d *Dispatcher) SubmitKey(ctx context.Context, id SurfaceID, ev key.Event) (Outcome, error) {
	s, err := d.surface(id)
	if err != nil {
		return Outcome{}, err
	}
	if r := activeRun(ctx, s); r != nil {
		r.typeahead = append(r.typeahead, vim.Input{Event: ev})
		return Outcome{Status: StatusQueued}, nil
	}

	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	r := d.begin(ctx, s)
	if d.hooks.RunPreKey(&ev, d.state(s)) {
		d.metrics.RecordHookConsumption()
		r.consumed = true
		return d.finish(r), nil
	}

	d.protect(r, func() {
		d.record(s, ev)
		_ = d.feed(r, []vim.Input{{Event: ev}})
	})
	out := d.finish(r)
	d.hooks.RunPostKey(ev, &out, d.state(s))
	d.metrics.RecordKey(time.Since(start))
	return out, nil
}

// SubmitKeys submits each key of seq in turn.
func (d *Dispatcher) SubmitKeys(ctx context.Context, id SurfaceID, seq key.Sequence) ([]Outcome, error) {
	outs := make([]Outcome, 0, len(seq))
	for _, ev := range seq {
		out, err := d.SubmitKey(ctx, id, ev)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// ForceResolveAmbiguous settles a sequence that waits for a longer
// mapping. Hosts call it when their 'timeoutlen' timer fires.
func (d *Dispatcher) ForceResolveAmbiguous(ctx context.Context, id SurfaceID) (Outcome, error) {
	s, err := d.surface(id)
	if err != nil {
		return Outcome{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := d.begin(ctx, s)
	d.metrics.RecordForcedResolve()
	d.protect(r, func() {
		more, err := d.handle(r, s.builder.ForceResolve(s.baseMode()))
		if err == nil && len(more) > 0 {
			_ = d.feed(r, more)
		}
	})
	return d.finish(r), nil
}

// RegisterMapping maps lhs to rhs, both in Vim notation, in the tables
// named by modes ("n", "nx", "i", "" for :map). With FlagExpression rhs
// is an expression for the script engine.
func (d *Dispatcher) RegisterMapping(owner keymap.Owner, modes, lhs, rhs string, flags keymap.MapFlags) error {
	mms, err := mode.ParseMapModes(modes)
	if err != nil {
		return err
	}
	lhsSeq, err := d.parseNotation(lhs)
	if err != nil {
		return err
	}

	var target keymap.Target
	if flags.Has(keymap.FlagExpression) {
		if rhs == "" {
			return fmt.Errorf("%w: empty expression", keymap.ErrInvalidTarget)
		}
		target = keymap.ToExpression(rhs)
	} else {
		rhsSeq, err := d.parseNotation(rhs)
		if err != nil {
			return err
		}
		target = keymap.ToKeys(rhsSeq)
	}
	return d.keymaps.Map(owner, mms, lhsSeq, target, flags)
}

// RegisterActionMapping maps lhs to a built-in command.
func (d *Dispatcher) RegisterActionMapping(owner keymap.Owner, modes, lhs, actionID string) error {
	def, ok := d.commands.Lookup(actionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, actionID)
	}
	mms, err := mode.ParseMapModes(modes)
	if err != nil {
		return err
	}
	lhsSeq, err := d.parseNotation(lhs)
	if err != nil {
		return err
	}
	return d.keymaps.Map(owner, mms, lhsSeq, keymap.ToCommand(def), 0)
}

// UnregisterMapping removes the owner's mapping of exactly lhs.
func (d *Dispatcher) UnregisterMapping(owner keymap.Owner, modes, lhs string) error {
	mms, err := mode.ParseMapModes(modes)
	if err != nil {
		return err
	}
	lhsSeq, err := d.parseNotation(lhs)
	if err != nil {
		return err
	}
	return d.keymaps.Unmap(owner, mms, lhsSeq)
}

func (d *Dispatcher) parseNotation(notation string) (key.Sequence, error) {
	return key.ParseSequence(keymap.ExpandLeader(notation, d.config.Leader))
}

// StartRecording starts recording typed keys into register. It fails
// with macro.ErrRecursiveRecording while that register is playing.
func (d *Dispatcher) StartRecording(register rune) error {
	if err := d.recorder.StartRecording(register); err != nil {
		d.logger.Warn("recording refused", "register", string(register), "error", err)
		return err
	}
	d.logger.Info("recording started", "register", string(register))
	return nil
}

// StopRecording stops recording and returns the register's keys.
func (d *Dispatcher) StopRecording() (key.Sequence, error) {
	return d.stopRecording(0)
}

func (d *Dispatcher) stopRecording(trim int) (key.Sequence, error) {
	register := d.recorder.CurrentRegister()
	seq, err := d.recorder.StopRecording(trim)
	if err != nil {
		return nil, err
	}
	d.logger.Info("recording stopped", "register", string(register), "keys", len(seq))
	return seq, nil
}

// PlayRegister replays a register count times on a surface, like
// "{count}@{register}". The register may be '@' for the last one played
// or ':' for the last command line.
func (d *Dispatcher) PlayRegister(ctx context.Context, id SurfaceID, register rune, count int) (Outcome, error) {
	s, err := d.surface(id)
	if err != nil {
		return Outcome{}, err
	}
	if r := activeRun(ctx, s); r != nil {
		_ = d.play(r, register, count)
		return Outcome{Status: StatusQueued}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := d.begin(ctx, s)
	d.protect(r, func() {
		_ = d.play(r, register, count)
	})
	return d.finish(r), nil
}

// PlayLastRegister replays the register played last, like "@@".
func (d *Dispatcher) PlayLastRegister(ctx context.Context, id SurfaceID, count int) (Outcome, error) {
	return d.PlayRegister(ctx, id, macro.LastPlayedRegister, count)
}

// CancelPlayback stops a surface's macro before its next key. It may be
// called from any goroutine.
func (d *Dispatcher) CancelPlayback(id SurfaceID) error {
	s, err := d.surface(id)
	if err != nil {
		return err
	}
	s.player.Cancel()
	return nil
}
