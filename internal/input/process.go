package input

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/macro"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/input/script"
	"github.com/dshills/modalkeys/internal/input/vim"
)

type runKey struct{}

// run is one call into the dispatcher for a surface. Its context reaches
// the executor, which may submit keys back; they queue behind the keys
// being processed instead of deadlocking on the surface lock.
type run struct {
	ctx context.Context
	s   *surface
	out Outcome

	cancelled bool
	aborted   bool
	consumed  bool
	done      bool

	typeahead []vim.Input
}

func (d *Dispatcher) begin(ctx context.Context, s *surface) *run {
	if ctx == nil {
		ctx = context.Background()
	}
	d.sync(s)
	r := &run{s: s}
	r.ctx = context.WithValue(ctx, runKey{}, r)
	return r
}

// activeRun returns the unfinished run for s carried by ctx.
func activeRun(ctx context.Context, s *surface) *run {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(runKey{}).(*run)
	if r == nil || r.s != s || r.done {
		return nil
	}
	return r
}

// fail reports err and abandons the rest of the run.
func (r *run) fail(err error) error {
	r.out.Errors = append(r.out.Errors, err)
	r.aborted = true
	return errReported
}

// report records err without stopping the run.
func (r *run) report(err error) {
	r.out.Errors = append(r.out.Errors, err)
}

// sync notices mode changes the host made between calls. Whatever was
// being typed belongs to the old mode and is dropped.
func (d *Dispatcher) sync(s *surface) {
	cur := s.modes.Mode()
	if cur == s.lastMode {
		return
	}
	if s.builder.State() != vim.StateIdle || s.returnMode != mode.None {
		d.logger.Debug("mode changed by host, discarding pending keys",
			"surface", s.id, "from", s.lastMode, "to", cur)
	}
	s.reset()
	s.capturing = false
	s.lastMode = cur
}

func (d *Dispatcher) protect(r *run, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			s := r.s
			s.player.Reset()
			s.reset()
			s.capturing = false
			d.logger.Error("panic while processing key", "surface", s.id, "panic", p)
			_ = r.fail(fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()
	fn()
}

// record adds a typed key to the macro being recorded. Keys fed by
// playback or repeat are not typed.
func (d *Dispatcher) record(s *surface, ev key.Event) {
	if s.player.IsPlaying() || s.replaying > 0 || !d.recorder.IsRecording() {
		return
	}
	d.recorder.Record(ev)
	s.typed++
}

// feed interprets keys in order. Keys produced along the way (read-ahead,
// mapping replacements) are processed before the rest of the queue, and
// keys submitted by the executor after it.
func (d *Dispatcher) feed(r *run, queue []vim.Input) error {
	for len(queue) > 0 {
		if r.aborted {
			return errReported
		}
		if err := r.ctx.Err(); err != nil {
			r.typeahead = r.typeahead[:0]
			return r.fail(err)
		}

		in := queue[0]
		queue = queue[1:]
		more, err := d.step(r, in)
		if err != nil {
			r.typeahead = r.typeahead[:0]
			return err
		}
		if len(more) > 0 {
			queue = slices.Concat(more, queue)
		}
		if len(r.typeahead) > 0 {
			queue = append(queue, r.typeahead...)
			r.typeahead = r.typeahead[:0]
		}
	}
	return nil
}

func (d *Dispatcher) step(r *run, in vim.Input) ([]vim.Input, error) {
	s := r.s
	if in.Event.IsEscape() && !s.builder.CapturesEscape() {
		return d.escape(r, in)
	}
	if s.builder.State() == vim.StateIdle {
		s.keys = s.keys[:0]
	}
	s.keys = append(s.keys, in.Event)
	return d.handle(r, s.builder.AddKey(in, s.baseMode()))
}

func (d *Dispatcher) handle(r *run, res vim.Result) ([]vim.Input, error) {
	s := r.s
	if n := len(res.Requeue); n > 0 {
		s.keys = s.keys[:max(len(s.keys)-n, 0)]
		// Keys read ahead of a deferred command belong to the commands
		// that follow it.
		if res.Status == vim.StatusComplete || res.Status == vim.StatusExpand {
			s.typed = min(s.typed, n)
		}
	}

	switch res.Status {
	case vim.StatusComplete:
		if err := d.complete(r, res.Command); err != nil {
			return nil, err
		}

	case vim.StatusExpand:
		more, err := d.expand(r, res)
		if err != nil {
			return nil, err
		}
		return slices.Concat(more, res.Requeue), nil

	case vim.StatusAwaitingArgument:
		switch {
		case res.OperatorPending:
			d.enterTransient(r, mode.OperatorPending)
		case res.Argument == command.ArgExString:
			d.enterTransient(r, mode.CommandLine)
			// ":" ends the selection; a search extends it.
			if res.Prompt == ':' && s.returnMode.HasSelection() {
				s.returnMode = mode.Normal
			}
		}
		if res.Err != nil {
			r.report(res.Err)
		}

	case vim.StatusInvalid:
		d.metrics.RecordInvalid()
		err := newSequenceError(s.keys, res.Err)
		d.restoreMode(r)
		s.keys = s.keys[:0]
		d.logger.Debug("invalid key sequence", "surface", s.id, "keys", err.Keys.String(), "error", res.Err)
		return nil, r.fail(err)

	case vim.StatusCancelled:
		r.cancelled = true
		d.restoreMode(r)
	}
	return res.Requeue, nil
}

// escape cancels whatever is pending. With nothing pending it leaves
// Insert, Replace, Visual and Select modes. In text-entry modes a
// pending mapping prefix is typed first.
func (d *Dispatcher) escape(r *run, in vim.Input) ([]vim.Input, error) {
	s := r.s
	base := s.baseMode()
	if base.IsTextEntry() && s.builder.State() == vim.StateAccumulatingMapping {
		if res := s.builder.ForceResolve(base); res.Status != vim.StatusNeedsMoreInput {
			more, err := d.handle(r, res)
			if err != nil {
				return nil, err
			}
			return append(more, in), nil
		}
	}

	if s.builder.State() != vim.StateIdle || s.returnMode != mode.None {
		prompt, _, inLine := s.builder.CommandLine()
		d.abandon(r)
		r.cancelled = true
		if cur := s.modes.Mode(); cur.HasSelection() && !(inLine && prompt != ':') {
			d.setMode(r, mode.Normal, true)
		}
		return nil, nil
	}

	cur := s.modes.Mode()
	if cur == mode.Insert || cur == mode.Replace || cur.HasSelection() {
		cmd := &command.Command{
			Count:  1,
			Action: d.escapeDef,
			Flags:  d.escapeDef.Flags,
			Enters: mode.Normal,
			Keys:   key.Sequence{in.Event},
		}
		return nil, d.complete(r, cmd)
	}
	r.out.Bell = true
	if cur != mode.Normal {
		d.setMode(r, mode.Normal, true)
	}
	return nil, nil
}

// expand produces the replacement keys of a mapping. They carry the
// expansion depth so that a mapping that keeps expanding into itself is
// caught.
func (d *Dispatcher) expand(r *run, res vim.Result) ([]vim.Input, error) {
	s := r.s
	entry := res.Mapping
	depth := res.Depth + 1
	if depth > d.config.MaxMapDepth {
		d.metrics.RecordInvalid()
		d.abandon(r)
		err := newSequenceError(entry.Keys, fmt.Errorf("%w: %s", ErrRecursiveMapping, entry.Keys))
		d.logger.Warn("mapping recursion limit reached", "surface", s.id, "lhs", entry.Keys.String(), "depth", depth)
		return nil, r.fail(err)
	}

	d.metrics.RecordExpansion()
	if entry.Flags.Has(keymap.FlagSilent) {
		r.out.Silent = true
	}

	rhs := entry.Replacement
	if entry.Flags.Has(keymap.FlagExpression) {
		seq, err := d.evaluate(r, entry.Expression)
		if err != nil {
			d.abandon(r)
			d.logger.Warn("expression mapping failed", "surface", s.id, "lhs", entry.Keys.String(), "error", err)
			return nil, r.fail(err)
		}
		rhs = seq
	}

	noremap := !entry.Flags.Has(keymap.FlagRecursive)
	// A replacement that starts with its own lhs does not remap that lhs.
	prefix := 0
	if !noremap && rhs.HasPrefix(entry.Keys) {
		prefix = len(entry.Keys)
	}
	out := make([]vim.Input, len(rhs))
	for i, ev := range rhs {
		out[i] = vim.Input{Event: ev, NoRemap: noremap || i < prefix, Depth: depth}
	}
	return out, nil
}

func (d *Dispatcher) evaluate(r *run, expr string) (key.Sequence, error) {
	if d.engine == nil {
		return nil, &ScriptError{Source: expr, Err: ErrNoScriptEngine}
	}
	env := d.env(r.s)

	d.scriptMu.Lock()
	text, err := d.engine.Eval(r.ctx, expr, env)
	d.scriptMu.Unlock()
	if err != nil {
		return nil, &ScriptError{Source: expr, Err: err}
	}
	seq, err := key.ParseSequence(text)
	if err != nil {
		return nil, &ScriptError{Source: expr, Err: err}
	}
	return seq, nil
}

func (d *Dispatcher) env(s *surface) script.Env {
	return script.Env{
		Mode:     s.baseMode().String(),
		Count:    s.builder.Count(),
		Register: s.builder.Register(),
		Pending:  s.builder.Pending(),
	}
}

// complete hands a finished command to the executor, or runs it when the
// dispatcher implements it itself.
func (d *Dispatcher) complete(r *run, cmd *command.Command) error {
	s := r.s
	d.completed(r, cmd)
	d.capture(s, cmd, s.baseMode())

	if d.preExecute(s, cmd) {
		d.transition(r, cmd)
		return nil
	}

	switch cmd.ID() {
	case command.IDRecord, command.IDStopRecord, command.IDPlay, command.IDRepeat, command.IDExCommand:
		d.transition(r, cmd)
		return d.builtin(r, cmd)
	}

	err := d.execute(r, cmd)
	d.transition(r, cmd)
	if err != nil {
		return d.executorFailed(r, cmd, err)
	}
	return nil
}

func (d *Dispatcher) completed(r *run, cmd *command.Command) {
	d.metrics.RecordCommand()
	r.out.CommandCount++
	if len(r.out.Commands) < d.config.MaxReportedCommands {
		r.out.Commands = append(r.out.Commands, cmd)
	}
	d.logger.Debug("command", "surface", r.s.id, "command", cmd)
}

func (d *Dispatcher) preExecute(s *surface, cmd *command.Command) bool {
	if d.hooks.Count() == 0 || !d.hooks.RunPreExecute(cmd, d.state(s)) {
		return false
	}
	d.metrics.RecordHookConsumption()
	return true
}

func (d *Dispatcher) builtin(r *run, cmd *command.Command) error {
	s := r.s
	switch cmd.ID() {
	case command.IDRecord:
		if err := d.StartRecording(cmd.Argument.Char); err != nil {
			r.report(err)
		}
	case command.IDStopRecord:
		if _, err := d.stopRecording(s.typed); err != nil {
			r.report(err)
		}
	case command.IDPlay:
		return d.play(r, cmd.Argument.Char, cmd.Count)
	case command.IDRepeat:
		return d.repeat(r, cmd)
	case command.IDExCommand:
		line := cmd.Argument.Text
		if line == "" {
			return nil
		}
		d.recorder.SetLastCommand(line)
		return d.runEx(r, cmd, line)
	}
	return nil
}

// play replays a register through feed, so macro keys take exactly the
// path typed keys take.
func (d *Dispatcher) play(r *run, register rune, count int) error {
	if register == macro.CommandRegister {
		return d.replayEx(r, count)
	}
	s := r.s
	err := s.player.Play(register, count, func(ev key.Event) error {
		d.metrics.RecordMacroKey()
		return d.feed(r, []vim.Input{{Event: ev}})
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errReported):
		return err
	}
	d.logger.Warn("macro playback failed", "surface", s.id, "register", string(register), "error", err)
	return r.fail(err)
}

// repeat runs the last change again, followed by the keys typed in
// Insert mode after it.
func (d *Dispatcher) repeat(r *run, cmd *command.Command) error {
	s := r.s
	c := s.lastChange
	if c == nil {
		return r.fail(ErrNoLastChange)
	}
	rep := c.cmd
	if cmd.CountGiven {
		rep = rep.WithCount(cmd.Count)
	}

	s.replaying++
	defer func() { s.replaying-- }()

	d.completed(r, rep)
	if !d.preExecute(s, rep) {
		if err := d.execute(r, rep); err != nil {
			d.transition(r, rep)
			return d.executorFailed(r, rep, err)
		}
	}
	d.transition(r, rep)

	if len(c.keys) == 0 {
		return nil
	}
	in := make([]vim.Input, len(c.keys))
	for i, ev := range c.keys {
		in[i] = vim.Input{Event: ev, NoRemap: true}
	}
	return d.feed(r, in)
}

// capture remembers the last change for ".". A change that enters Insert
// or Replace mode also collects the keys typed until that mode is left.
func (d *Dispatcher) capture(s *surface, cmd *command.Command, base mode.Mode) {
	if s.replaying > 0 {
		return
	}
	if s.capturing && s.lastChange != nil {
		s.lastChange.keys = append(s.lastChange.keys, cmd.Keys...)
		return
	}
	if !cmd.Flags.Has(command.FlagSaveLastChange) || base.IsTextEntry() {
		return
	}
	s.lastChange = &change{cmd: cmd}
	s.capturing = cmd.Enters == mode.Insert || cmd.Enters == mode.Replace
}

// runEx runs a command line. The script engine executes it when there is
// one; otherwise ":normal" is handled here and everything else goes to
// the executor.
func (d *Dispatcher) runEx(r *run, cmd *command.Command, line string) error {
	if d.engine == nil {
		if keys, ok := script.ParseNormal(line); ok {
			return d.feedNotation(r, keys)
		}
		if err := d.execute(r, cmd); err != nil {
			return d.executorFailed(r, cmd, err)
		}
		return nil
	}

	env := d.env(r.s)
	if cmd.CountGiven {
		env.Count = cmd.Count
	}
	d.scriptMu.Lock()
	res, err := d.engine.ExecuteEx(r.ctx, line, env)
	d.scriptMu.Unlock()
	if err != nil {
		d.logger.Warn("command line failed", "surface", r.s.id, "line", line, "error", err)
		return r.fail(&ScriptError{Source: line, Err: err})
	}
	if res.Output != "" {
		r.out.Messages = append(r.out.Messages, res.Output)
	}
	if res.Keys == "" {
		return nil
	}
	return d.feedNotation(r, res.Keys)
}

// replayEx repeats the last command line, like "@:".
func (d *Dispatcher) replayEx(r *run, count int) error {
	line := d.recorder.LastCommand()
	if line == "" {
		return r.fail(ErrNoLastCommand)
	}
	for range max(count, 1) {
		cmd := &command.Command{
			Count:    1,
			Action:   d.exDef,
			Argument: command.Argument{Type: command.ArgExString, Text: line},
			Flags:    d.exDef.Flags,
		}
		d.completed(r, cmd)
		if err := d.runEx(r, cmd, line); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) feedNotation(r *run, notation string) error {
	seq, err := key.ParseSequence(notation)
	if err != nil {
		return r.fail(&ScriptError{Source: notation, Err: err})
	}
	in := make([]vim.Input, len(seq))
	for i, ev := range seq {
		in[i] = vim.Input{Event: ev}
	}
	return d.feed(r, in)
}

func (d *Dispatcher) execute(r *run, cmd *command.Command) (err error) {
	if d.executor == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	return d.executor.Execute(r.ctx, cmd, d.state(r.s))
}

func (d *Dispatcher) executorFailed(r *run, cmd *command.Command, err error) error {
	d.metrics.RecordExecutorFailure()
	d.logger.Warn("command failed", "surface", r.s.id, "command", cmd.String(), "error", err)
	return r.fail(&ExecutorError{Command: cmd, Err: err})
}

// transition moves the surface to the mode a command leaves it in.
func (d *Dispatcher) transition(r *run, cmd *command.Command) {
	s := r.s
	target := cmd.Enters
	if target == mode.None {
		target = s.returnMode
	}
	s.returnMode = mode.None
	if target != mode.None && target != s.modes.Mode() {
		d.setMode(r, target, true)
	}
	if cur := s.modes.Mode(); cur != mode.Insert && cur != mode.Replace {
		s.capturing = false
	}
}

// enterTransient switches to OperatorPending or CommandLine while an
// argument is typed, remembering the mode to go back to.
func (d *Dispatcher) enterTransient(r *run, m mode.Mode) {
	s := r.s
	if s.returnMode == mode.None {
		s.returnMode = s.modes.Mode()
	}
	if s.modes.Mode() != m {
		d.setMode(r, m, false)
	}
}

func (d *Dispatcher) restoreMode(r *run) {
	s := r.s
	if s.returnMode == mode.None {
		return
	}
	m := s.returnMode
	s.returnMode = mode.None
	if s.modes.Mode() != m {
		d.setMode(r, m, true)
	}
}

// abandon drops the command in progress.
func (d *Dispatcher) abandon(r *run) {
	d.restoreMode(r)
	r.s.reset()
}

func (d *Dispatcher) setMode(r *run, m mode.Mode, report bool) {
	s := r.s
	from := s.modes.Mode()
	if err := s.modes.RequestMode(m); err != nil {
		d.logger.Warn("mode change refused", "surface", s.id, "from", from, "to", m, "error", err)
		if report {
			r.report(err)
		}
		return
	}
	d.logger.Debug("mode changed", "surface", s.id, "from", from, "to", m)
}

// finish assembles the outcome of a run.
func (d *Dispatcher) finish(r *run) Outcome {
	s := r.s
	r.done = true
	if r.aborted && s.builder.State() != vim.StateIdle {
		d.abandon(r)
	}

	out := r.out
	st := s.builder.State()
	out.State = st
	out.Mode = s.modes.Mode()
	out.Pending = s.builder.Pending()
	if prompt, text, ok := s.builder.CommandLine(); ok {
		out.CommandLine = string(prompt) + text
	}
	out.Recording = d.recorder.CurrentRegister()
	if len(out.Errors) > 0 {
		out.Bell = true
	}

	if st == vim.StateIdle {
		s.typed = 0
		s.keys = s.keys[:0]
	}
	s.lastMode = out.Mode

	var seqErr *SequenceError
	switch {
	case r.consumed:
		out.Status = StatusConsumed
	case r.aborted && errors.As(out.Errors[len(out.Errors)-1], &seqErr):
		out.Status = StatusInvalid
	case r.aborted:
		out.Status = StatusFailed
	case r.cancelled:
		out.Status = StatusCancelled
	case st != vim.StateIdle:
		out.Status = StatusPending
	case len(out.Errors) > 0:
		out.Status = StatusFailed
	case out.CommandCount > 0:
		out.Status = StatusExecuted
	default:
		out.Status = StatusIgnored
	}
	return out
}
