package vim

import (
	"fmt"
	"unicode"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/digraph"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/mode"
)

// Trie resolves key sequences. *keymap.Registry implements it.
type Trie interface {
	Lookup(mm mode.MapMode, scope keymap.Scope, keys key.Sequence, remap bool) keymap.Match
}

// Recorder reports whether a macro is being recorded. While it is, the
// key that starts recording resolves to the stop command instead.
type Recorder interface {
	IsRecording() bool
}

// Options configures a Builder.
type Options struct {
	// Scope selects which buffer-local mappings are visible.
	Scope keymap.Scope

	Recorder Recorder
}

// defs are the definitions the builder produces on its own.
type defs struct {
	insertChar    *command.Definition
	replaceChar   *command.Definition
	selectReplace *command.Definition
	line          *command.Definition
	selection     *command.Definition
	stopRecord    *command.Definition
}

// Builder assembles one command from keys typed one at a time. It is not
// safe for concurrent use; each editing surface owns one.
//
// Operators and command-line arguments are collected by a nested Builder
// fixed to OperatorPending or CommandLine mode, so a motion or a line is
// resolved by exactly the same rules as a top-level command.
type Builder struct {
	trie Trie
	defs *defs
	opts Options

	// fixed is the mode a nested builder resolves in, None at top level.
	fixed mode.Mode

	// lineKey is the operator's last key. Inside the motion builder it
	// selects the current line, as in "d3d".
	lineKey *key.ID

	count            CountState
	register         rune
	awaitingRegister bool

	// pending holds keys resolved against the trie since the last count
	// or register. best is the complete entry seen while deferring on an
	// ambiguous match, covering the first bestLen keys.
	pending []Input
	best    *keymap.Entry
	bestLen int

	// raw holds the keys that make up the command so far.
	raw key.Sequence

	operator *command.Definition
	opCount  CountState
	motion   *Builder

	arg       *command.Definition
	collector digraph.Collector
	line      []rune
	cmdline   *Builder
}

// NewBuilder creates a builder that resolves keys against trie. The
// command registry must contain the built-in definitions the builder
// emits itself, such as insert.char and motion.line.
func NewBuilder(trie Trie, commands *command.Registry, opts Options) (*Builder, error) {
	d := &defs{}
	refs := []struct {
		id  string
		dst **command.Definition
	}{
		{command.IDInsertChar, &d.insertChar},
		{command.IDReplaceChar, &d.replaceChar},
		{command.IDSelectReplace, &d.selectReplace},
		{command.IDLine, &d.line},
		{command.IDSelection, &d.selection},
		{command.IDStopRecord, &d.stopRecord},
	}
	for _, ref := range refs {
		def, ok := commands.Lookup(ref.id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingDefinition, ref.id)
		}
		*ref.dst = def
	}
	return &Builder{trie: trie, defs: d, opts: opts}, nil
}

func (b *Builder) child(m mode.Mode) *Builder {
	return &Builder{trie: b.trie, defs: b.defs, opts: b.opts, fixed: m}
}

// SetScope changes the buffer scope for subsequent lookups.
func (b *Builder) SetScope(scope keymap.Scope) {
	b.opts.Scope = scope
}

// Reset discards everything accumulated so far.
func (b *Builder) Reset() {
	*b = Builder{trie: b.trie, defs: b.defs, opts: b.opts, fixed: b.fixed, lineKey: b.lineKey}
}

// State reports the phase the builder is in.
func (b *Builder) State() State {
	switch {
	case b.motion != nil:
		if b.motion.State() == StateAwaitingArgument {
			return StateAwaitingArgument
		}
		return StateOperatorPending
	case b.arg != nil, b.awaitingRegister:
		return StateAwaitingArgument
	case len(b.pending) > 0, b.count.Active, b.register != 0:
		return StateAccumulatingMapping
	}
	return StateIdle
}

// Count returns the count typed for the command so far, or 0.
func (b *Builder) Count() int {
	if b.count.Active {
		return b.count.Value
	}
	if b.opCount.Active {
		return b.opCount.Value
	}
	return 0
}

// Register returns the register selected with ", or 0.
func (b *Builder) Register() rune {
	return b.register
}

// CapturesEscape reports whether the next key is taken literally, so
// that <C-v><Esc> inserts an escape character instead of cancelling.
func (b *Builder) CapturesEscape() bool {
	switch {
	case b.motion != nil:
		return b.motion.CapturesEscape()
	case b.cmdline != nil && b.cmdline.CapturesEscape():
		return true
	}
	return b.collector.Literal()
}

// CommandLine returns the prompt and text of a command-line argument
// being typed.
func (b *Builder) CommandLine() (prompt rune, text string, ok bool) {
	if b.motion != nil {
		return b.motion.CommandLine()
	}
	if b.cmdline == nil {
		return 0, "", false
	}
	return b.arg.Prompt, string(b.line), true
}

// AddKey feeds one key. m is the surface's current mode; nested builders
// ignore it and use their own.
func (b *Builder) AddKey(in Input, m mode.Mode) Result {
	if b.fixed != mode.None {
		m = b.fixed
	}
	b.raw = append(b.raw, in.Event)

	switch {
	case b.motion != nil:
		return b.afterMotion(b.motion.AddKey(in, mode.OperatorPending), m)
	case b.arg != nil:
		return b.addArgument(in, m)
	case b.awaitingRegister:
		return b.addRegister(in)
	}

	if len(b.pending) == 0 && takesCount(m) && in.Event.IsDigit() && b.count.AccumulateDigit(in.Event.Rune) {
		return Result{Status: StatusNeedsMoreInput}
	}
	if len(b.pending) == 0 && takesRegister(m) && in.Event.Is(key.Rune('"')) {
		b.awaitingRegister = true
		return Result{Status: StatusNeedsMoreInput}
	}
	return b.addTrieKey(in, m)
}

// ForceResolve settles an ambiguous sequence when the host's timeout
// fires: the best complete binding seen so far wins and the remaining
// keys are requeued. In text-entry modes a bare prefix of a mapping is
// typed as text.
func (b *Builder) ForceResolve(m mode.Mode) Result {
	if b.fixed != mode.None {
		m = b.fixed
	}
	switch {
	case b.motion != nil:
		return b.afterMotion(b.motion.ForceResolve(mode.OperatorPending), m)
	case b.cmdline != nil:
		return b.afterLine(b.cmdline.ForceResolve(mode.CommandLine), m)
	case b.arg != nil:
		return b.awaiting()
	case len(b.pending) == 0:
		return Result{Status: StatusNeedsMoreInput}
	case b.best != nil:
		return b.commitBest(m)
	case m.IsTextEntry() || m.IsSelect():
		return b.fallback(m)
	}
	return Result{Status: StatusNeedsMoreInput}
}

func takesCount(m mode.Mode) bool {
	return m == mode.Normal || m.IsVisual() || m == mode.OperatorPending
}

func takesRegister(m mode.Mode) bool {
	return m == mode.Normal || m.IsVisual() || m == mode.OperatorPending
}

func (b *Builder) addRegister(in Input) Result {
	b.awaitingRegister = false
	ev := in.Event
	if !ev.IsPrintable() || !IsValidRegister(ev.Char()) {
		return b.fail(fmt.Errorf("%w: register %s", ErrInvalidArgument, ev))
	}
	b.register = ev.Char()
	return Result{Status: StatusNeedsMoreInput}
}

func (b *Builder) addTrieKey(in Input, m mode.Mode) Result {
	b.pending = append(b.pending, in)
	keys := make(key.Sequence, len(b.pending))
	remap := true
	for i, p := range b.pending {
		keys[i] = p.Event
		if p.NoRemap {
			remap = false
		}
	}

	match := b.trie.Lookup(m.MapMode(), b.opts.Scope, keys, remap)
	switch match.Kind {
	case keymap.MatchComplete:
		used := b.pending
		b.pending, b.best = nil, nil
		return b.resolve(match.Entry, used, m)
	case keymap.MatchAmbiguous:
		b.best, b.bestLen = match.Entry, len(b.pending)
		return Result{Status: StatusNeedsMoreInput}
	case keymap.MatchPrefix:
		return Result{Status: StatusNeedsMoreInput}
	}

	if b.best != nil {
		return b.commitBest(m)
	}
	if b.lineKey != nil && len(b.pending) == 1 && in.Event.ID() == *b.lineKey {
		b.pending = nil
		return b.finish(b.defs.line, command.Argument{}, m)
	}
	return b.fallback(m)
}

// commitBest runs the deferred complete entry and requeues the keys
// typed after it.
func (b *Builder) commitBest(m mode.Mode) Result {
	entry, n := b.best, b.bestLen
	used := b.pending[:n]
	rest := append([]Input(nil), b.pending[n:]...)
	b.pending, b.best = nil, nil
	b.unread(len(rest))

	res := b.resolve(entry, used, m)
	res.Requeue = append(rest, res.Requeue...)
	return res
}

// fallback handles keys no binding covers. Text-entry modes type the
// first key and requeue the others; elsewhere the sequence is dropped.
func (b *Builder) fallback(m mode.Mode) Result {
	var def *command.Definition
	switch {
	case m == mode.Replace:
		def = b.defs.replaceChar
	case m.IsSelect():
		def = b.defs.selectReplace
	case m.IsTextEntry():
		def = b.defs.insertChar
	}

	first := b.pending[0]
	if def == nil || !first.Event.IsPrintable() {
		keys := make(key.Sequence, len(b.pending))
		for i, p := range b.pending {
			keys[i] = p.Event
		}
		return b.fail(fmt.Errorf("%w: %s", ErrUnresolvedSequence, keys))
	}

	rest := append([]Input(nil), b.pending[1:]...)
	b.pending = nil
	b.unread(len(rest))
	res := b.finish(def, command.Argument{Type: command.ArgCharacter, Char: first.Event.Char()}, m)
	res.Requeue = rest
	return res
}

func (b *Builder) resolve(entry *keymap.Entry, used []Input, m mode.Mode) Result {
	if entry.IsMapping() {
		depth := 0
		for _, in := range used {
			depth = max(depth, in.Depth)
		}
		b.unread(len(used))
		return Result{Status: StatusExpand, Mapping: entry, Depth: depth}
	}

	def := entry.Command
	switch {
	case def.Kind == command.KindOperator:
		return b.startOperator(def, used[len(used)-1].Event.ID(), m)
	case def.Flags.Has(command.FlagToggleRecording) && b.recording():
		return b.finish(b.defs.stopRecord, command.Argument{}, m)
	case def.Argument != command.ArgNone:
		return b.startArgument(def)
	}
	return b.finish(def, command.Argument{}, m)
}

func (b *Builder) recording() bool {
	return b.opts.Recorder != nil && b.opts.Recorder.IsRecording()
}

func (b *Builder) startOperator(def *command.Definition, last key.ID, m mode.Mode) Result {
	if m.HasSelection() {
		return b.finishSelection(def)
	}
	if b.fixed != mode.None {
		return b.fail(fmt.Errorf("%w: %s is not a motion", ErrInvalidArgument, def.ID))
	}
	b.operator = def
	b.opCount = b.count
	b.count.Reset()
	b.motion = b.child(mode.OperatorPending)
	b.motion.lineKey = &last
	return Result{Status: StatusAwaitingArgument, Argument: command.ArgMotion, OperatorPending: true}
}

func (b *Builder) startArgument(def *command.Definition) Result {
	b.arg = def
	switch def.Argument {
	case command.ArgDigraph:
		b.collector.StartDigraph()
	case command.ArgCharacter:
		if def.Flags.Has(command.FlagLiteralEntry) {
			b.collector.StartLiteral()
		}
	case command.ArgExString:
		b.cmdline = b.child(mode.CommandLine)
		b.line = nil
	}
	return b.awaiting()
}

func (b *Builder) awaiting() Result {
	if b.arg == nil {
		return Result{Status: StatusNeedsMoreInput}
	}
	return Result{Status: StatusAwaitingArgument, Argument: b.arg.Argument, Prompt: b.arg.Prompt}
}

func (b *Builder) addArgument(in Input, m mode.Mode) Result {
	if b.cmdline != nil {
		return b.afterLine(b.cmdline.AddKey(in, mode.CommandLine), m)
	}

	if b.collector.Active() {
		cr := b.collector.Consume(in.Event)
		switch cr.Status {
		case digraph.Pending:
			return b.awaiting()
		case digraph.Invalid:
			return b.fail(fmt.Errorf("%w: %w", ErrInvalidArgument, cr.Err))
		}
		b.unread(len(cr.Requeue))
		res := b.finish(b.arg, command.Argument{Type: b.arg.Argument, Char: cr.Char}, m)
		res.Requeue = requeueOf(cr.Requeue, in)
		return res
	}

	ev := in.Event
	switch {
	case ev.Is(key.Ctrl('k')):
		b.collector.StartDigraph()
		return b.awaiting()
	case ev.Is(key.Ctrl('v')), ev.Is(key.Ctrl('q')):
		b.collector.StartLiteral()
		return b.awaiting()
	}

	ch, ok := argumentChar(ev)
	if !ok {
		return b.fail(fmt.Errorf("%w: %s is not a character", ErrInvalidArgument, ev))
	}
	return b.finish(b.arg, command.Argument{Type: b.arg.Argument, Char: ch}, m)
}

func argumentChar(ev key.Event) (rune, bool) {
	switch {
	case ev.IsPrintable():
		return ev.Char(), true
	case ev.IsEnter():
		return '\r', true
	case ev.Is(key.Special(key.KeyTab)):
		return '\t', true
	}
	return 0, false
}

// afterMotion folds the motion builder's result into the operator.
func (b *Builder) afterMotion(res Result, m mode.Mode) Result {
	switch res.Status {
	case StatusComplete:
		b.unread(len(res.Requeue))
		sub := res.Command
		if k := sub.Action.Kind; k != command.KindMotion && k != command.KindTextObject {
			return b.fail(fmt.Errorf("%w: %s is not a motion", ErrInvalidArgument, sub.ID()))
		}
		out := b.finishOperator(sub)
		out.Requeue = res.Requeue
		return out
	case StatusInvalid, StatusCancelled:
		b.Reset()
		return res
	case StatusExpand:
		b.unread(len(res.Mapping.Keys) + len(res.Requeue))
	}
	res.OperatorPending = false
	return res
}

// afterLine applies one command-line editing command to the line being
// collected.
func (b *Builder) afterLine(res Result, m mode.Mode) Result {
	switch res.Status {
	case StatusExpand:
		b.unread(len(res.Mapping.Keys) + len(res.Requeue))
		return res
	case StatusCancelled:
		b.Reset()
		return res
	case StatusInvalid:
		// The line survives keys that do nothing on the command line.
		out := b.awaiting()
		out.Err, out.Requeue = res.Err, res.Requeue
		return out
	case StatusComplete:
	default:
		out := b.awaiting()
		out.Requeue = res.Requeue
		return out
	}

	b.unread(len(res.Requeue))
	cmd := res.Command
	switch cmd.ID() {
	case command.IDCmdlineExecute:
		out := b.finish(b.arg, command.Argument{Type: command.ArgExString, Text: string(b.line)}, m)
		out.Requeue = res.Requeue
		return out
	case command.IDCmdlineBackspace:
		if len(b.line) == 0 {
			b.Reset()
			return Result{Status: StatusCancelled, Requeue: res.Requeue}
		}
		b.line = b.line[:len(b.line)-1]
	case command.IDCmdlineClear:
		b.line = b.line[:0]
	case command.IDCmdlineDeleteWord:
		b.line = deleteWordBefore(b.line)
	default:
		if t := cmd.Argument.Type; t == command.ArgCharacter || t == command.ArgDigraph {
			b.line = append(b.line, cmd.Argument.Char)
		}
	}
	out := b.awaiting()
	out.Requeue = res.Requeue
	return out
}

func deleteWordBefore(line []rune) []rune {
	i := len(line)
	for i > 0 && unicode.IsSpace(line[i-1]) {
		i--
	}
	switch {
	case i > 0 && isWordRune(line[i-1]):
		for i > 0 && isWordRune(line[i-1]) {
			i--
		}
	case i > 0:
		i--
	}
	return line[:i]
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (b *Builder) finish(def *command.Definition, arg command.Argument, m mode.Mode) Result {
	cmd := &command.Command{
		Count:      b.count.Get(),
		CountGiven: b.count.Active,
		Register:   b.register,
		Action:     def,
		Argument:   arg,
		Flags:      def.Flags,
		Enters:     b.enters(def, m),
		Keys:       b.raw.Clone(),
	}
	b.Reset()
	return Result{Status: StatusComplete, Command: cmd}
}

// finishOperator merges the operator with its motion: counts multiply
// and the operator's register wins over one typed before the motion.
func (b *Builder) finishOperator(sub *command.Command) Result {
	register := b.register
	if register == 0 {
		register = sub.Register
	}
	cmd := &command.Command{
		Count:      CombineCounts(b.opCount.Get(), sub.Count),
		CountGiven: b.opCount.Active || sub.CountGiven,
		Register:   register,
		Operator:   b.operator,
		Action:     sub.Action,
		Argument:   command.Argument{Type: command.ArgMotion, Motion: sub},
		Flags:      b.operator.Flags | sub.Flags,
		Enters:     b.operator.Enters,
		Keys:       b.raw.Clone(),
	}
	b.Reset()
	return Result{Status: StatusComplete, Command: cmd}
}

// finishSelection applies an operator typed in Visual or Select mode to
// the selection. The selection ends with it.
func (b *Builder) finishSelection(op *command.Definition) Result {
	enters := op.Enters
	if enters == mode.None {
		enters = mode.Normal
	}
	cmd := &command.Command{
		Count:      b.count.Get(),
		CountGiven: b.count.Active,
		Register:   b.register,
		Operator:   op,
		Action:     b.defs.selection,
		Flags:      op.Flags,
		Enters:     enters,
		Keys:       b.raw.Clone(),
	}
	b.Reset()
	return Result{Status: StatusComplete, Command: cmd}
}

// enters decides the mode after def. Actions typed in Visual mode end the
// selection unless they keep it, and a Visual mode key toggles its own
// mode off.
func (b *Builder) enters(def *command.Definition, m mode.Mode) mode.Mode {
	if b.fixed != mode.None || !m.HasSelection() {
		return def.Enters
	}
	switch {
	case def.Flags.Has(command.FlagKeepVisual) && def.Enters == m:
		return mode.Normal
	case def.Kind == command.KindAction && def.Enters == mode.None && !def.Flags.Has(command.FlagKeepVisual):
		return mode.Normal
	}
	return def.Enters
}

func (b *Builder) fail(err error) Result {
	b.Reset()
	return Result{Status: StatusInvalid, Err: err}
}

// unread drops the last n keys from raw; they are about to be requeued
// or replaced by a mapping.
func (b *Builder) unread(n int) {
	n = min(n, len(b.raw))
	b.raw = b.raw[:len(b.raw)-n]
}
