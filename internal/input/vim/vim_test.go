package vim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/mode"
)

type recorderFunc func() bool

func (f recorderFunc) IsRecording() bool { return f() }

type fixture struct {
	t       *testing.T
	keys    *keymap.Registry
	cmds    *command.Registry
	builder *Builder
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	cmds := command.Builtins()
	keys := keymap.NewRegistry(keymap.DefaultPolicy())
	require.NoError(t, keymap.LoadDefaults(keys, cmds))
	b, err := NewBuilder(keys, cmds, opts)
	require.NoError(t, err)
	return &fixture{t: t, keys: keys, cmds: cmds, builder: b}
}

func (f *fixture) nmap(modes, lhs, rhs string, flags keymap.MapFlags) {
	f.t.Helper()
	mms, err := mode.ParseMapModes(modes)
	require.NoError(f.t, err)
	err = f.keys.Map(keymap.Global(), mms, key.MustParseSequence(lhs), keymap.ToKeys(key.MustParseSequence(rhs)), flags)
	require.NoError(f.t, err)
}

// feed types keys in mode m the way the dispatcher does: requeued keys
// and mapping replacements are processed before the rest. It returns
// every result that is not StatusNeedsMoreInput.
func (f *fixture) feed(m mode.Mode, notation string) []Result {
	f.t.Helper()
	var queue []Input
	for _, ev := range key.MustParseSequence(notation) {
		queue = append(queue, Input{Event: ev})
	}
	var out []Result
	for len(queue) > 0 {
		in := queue[0]
		queue = queue[1:]
		res := f.builder.AddKey(in, m)
		front := res.Requeue
		if res.Status == StatusExpand {
			var exp []Input
			for _, ev := range res.Mapping.Replacement {
				exp = append(exp, Input{
					Event:   ev,
					NoRemap: !res.Mapping.Flags.Has(keymap.FlagRecursive),
					Depth:   res.Depth + 1,
				})
			}
			front = append(exp, front...)
		}
		queue = append(append([]Input(nil), front...), queue...)
		if res.Status != StatusNeedsMoreInput {
			out = append(out, res)
		}
	}
	return out
}

// last returns the final result of feeding keys.
func (f *fixture) last(m mode.Mode, notation string) Result {
	f.t.Helper()
	results := f.feed(m, notation)
	require.NotEmpty(f.t, results, "no result for %q", notation)
	return results[len(results)-1]
}

func (f *fixture) command(m mode.Mode, notation string) *command.Command {
	f.t.Helper()
	res := f.last(m, notation)
	require.Equal(f.t, StatusComplete, res.Status, "keys %q: %v", notation, res.Err)
	require.NotNil(f.t, res.Command)
	return res.Command
}

func TestBuilderMotions(t *testing.T) {
	tests := []struct {
		keys      string
		wantID    string
		wantCount int
		wantGiven bool
	}{
		{"h", "motion.left", 1, false},
		{"j", "motion.down", 1, false},
		{"w", "motion.wordForward", 1, false},
		{"0", "motion.lineStart", 1, false},
		{"$", "motion.lineEnd", 1, false},
		{"gg", "motion.firstLine", 1, false},
		{"G", "motion.lastLine", 1, false},
		{"5j", "motion.down", 5, true},
		{"10w", "motion.wordForward", 10, true},
		{"10j", "motion.down", 10, true},
		{"25G", "motion.lastLine", 25, true},
		{"<Space>", "motion.right", 1, false},
		{"ge", "motion.wordEndBackward", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			f := newFixture(t, Options{})
			cmd := f.command(mode.Normal, tt.keys)
			assert.Equal(t, tt.wantID, cmd.ID())
			assert.Equal(t, tt.wantCount, cmd.Count)
			assert.Equal(t, tt.wantGiven, cmd.CountGiven)
			assert.Nil(t, cmd.Operator)
			assert.Equal(t, StateIdle, f.builder.State())
		})
	}
}

func TestBuilderLeadingZero(t *testing.T) {
	f := newFixture(t, Options{})

	cmd := f.command(mode.Normal, "0")
	assert.Equal(t, "motion.lineStart", cmd.ID())
	assert.False(t, cmd.CountGiven)

	res := f.builder.AddKey(Input{Event: key.Rune('1')}, mode.Normal)
	assert.Equal(t, StatusNeedsMoreInput, res.Status)
	res = f.builder.AddKey(Input{Event: key.Rune('0')}, mode.Normal)
	assert.Equal(t, StatusNeedsMoreInput, res.Status, "0 after a digit extends the count")
	assert.Equal(t, "10", f.builder.Pending())

	cmd = f.command(mode.Normal, "x")
	assert.Equal(t, "edit.deleteChar", cmd.ID())
	assert.Equal(t, 10, cmd.Count)

	// After an operator, 0 is still a motion.
	cmd = f.command(mode.Normal, "d0")
	assert.Equal(t, "operator.delete", cmd.OperatorID())
	assert.Equal(t, "motion.lineStart", cmd.ID())
}

func TestBuilderCountComposition(t *testing.T) {
	for _, keys := range []string{"3d2w", "6dw", "2d3w", "d6w"} {
		t.Run(keys, func(t *testing.T) {
			f := newFixture(t, Options{})
			cmd := f.command(mode.Normal, keys)
			assert.Equal(t, "operator.delete", cmd.OperatorID())
			assert.Equal(t, "motion.wordForward", cmd.ID())
			assert.Equal(t, 6, cmd.Count)
			assert.True(t, cmd.CountGiven)
			require.NotNil(t, cmd.Argument.Motion)
			assert.Equal(t, command.ArgMotion, cmd.Argument.Type)
			assert.Equal(t, keys, cmd.Keys.String())
		})
	}
}

func TestBuilderOperatorAmbiguity(t *testing.T) {
	f := newFixture(t, Options{})

	res := f.builder.AddKey(Input{Event: key.Rune('d')}, mode.Normal)
	assert.Equal(t, StatusNeedsMoreInput, res.Status, "d alone must wait for dd")
	assert.Equal(t, StateAccumulatingMapping, f.builder.State())

	res = f.builder.AddKey(Input{Event: key.Rune('d')}, mode.Normal)
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, "edit.deleteLine", res.Command.ID())
	assert.Nil(t, res.Command.Operator)
	assert.Empty(t, res.Requeue)

	results := f.feed(mode.Normal, "dd")
	require.Len(t, results, 1, "dd resolves once")
	assert.Equal(t, "edit.deleteLine", results[0].Command.ID())
}

func TestBuilderOperatorPending(t *testing.T) {
	f := newFixture(t, Options{})

	f.builder.AddKey(Input{Event: key.Rune('c')}, mode.Normal)
	res := f.builder.AddKey(Input{Event: key.Rune('w')}, mode.Normal)
	require.Equal(t, StatusAwaitingArgument, res.Status)
	assert.True(t, res.OperatorPending)
	assert.Equal(t, command.ArgMotion, res.Argument)
	require.Len(t, res.Requeue, 1)
	assert.Equal(t, StateOperatorPending, f.builder.State())

	res = f.builder.AddKey(res.Requeue[0], mode.Normal)
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, "operator.change", res.Command.OperatorID())
	assert.Equal(t, mode.Insert, res.Command.Enters)
	assert.Equal(t, "cw", res.Command.Keys.String())
}

func TestBuilderOperatorCommands(t *testing.T) {
	tests := []struct {
		keys     string
		operator string
		action   string
		count    int
		register rune
	}{
		{"diw", "operator.delete", "textobject.innerWord", 1, 0},
		{"ci\"", "operator.change", "textobject.innerDoubleQuote", 1, 0},
		{"ya(", "operator.yank", "textobject.aroundParen", 1, 0},
		{"d3d", "operator.delete", "motion.line", 3, 0},
		{"2y3y", "operator.yank", "motion.line", 6, 0},
		{">j", "operator.indentRight", "motion.down", 1, 0},
		{"gUiw", "operator.toUpper", "textobject.innerWord", 1, 0},
		{"dgg", "operator.delete", "motion.firstLine", 1, 0},
		{"\"ayw", "operator.yank", "motion.wordForward", 1, 'a'},
		{"d\"aw", "operator.delete", "motion.wordForward", 1, 'a'},
		{"\"b2dj", "operator.delete", "motion.down", 2, 'b'},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			f := newFixture(t, Options{})
			cmd := f.command(mode.Normal, tt.keys)
			assert.Equal(t, tt.operator, cmd.OperatorID())
			assert.Equal(t, tt.action, cmd.ID())
			assert.Equal(t, tt.count, cmd.Count)
			assert.Equal(t, tt.register, cmd.Register)
		})
	}
}

func TestBuilderOperatorLinewiseFlag(t *testing.T) {
	f := newFixture(t, Options{})
	cmd := f.command(mode.Normal, "dj")
	assert.True(t, cmd.Flags.Has(command.FlagLinewise))
	assert.True(t, cmd.Flags.Has(command.FlagSaveLastChange))
}

func TestBuilderCharArgument(t *testing.T) {
	tests := []struct {
		keys string
		id   string
		char rune
	}{
		{"fx", "motion.findChar", 'x'},
		{"t<Space>", "motion.tillChar", ' '},
		{"ra", "edit.replaceChar", 'a'},
		{"r<CR>", "edit.replaceChar", '\r'},
		{"f<C-k>e'", "motion.findChar", 'é'},
		{"f<C-v>065", "motion.findChar", 'A'},
		{"ma", "mark.set", 'a'},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			f := newFixture(t, Options{})
			cmd := f.command(mode.Normal, tt.keys)
			assert.Equal(t, tt.id, cmd.ID())
			assert.Equal(t, command.ArgCharacter, cmd.Argument.Type)
			assert.Equal(t, tt.char, cmd.Argument.Char)
		})
	}

	f := newFixture(t, Options{})
	cmd := f.command(mode.Normal, "2dtx")
	assert.Equal(t, "motion.tillChar", cmd.ID())
	assert.Equal(t, 'x', cmd.Argument.Motion.Argument.Char)
	assert.Equal(t, 2, cmd.Count)
}

func TestBuilderCharArgumentRequeue(t *testing.T) {
	f := newFixture(t, Options{})
	var done []*command.Command
	for _, res := range f.feed(mode.Normal, "f<C-v>65j") {
		if res.Status == StatusComplete {
			done = append(done, res.Command)
		}
	}
	require.Len(t, done, 2)
	assert.Equal(t, 'A', done[0].Argument.Char)
	assert.Equal(t, "f<C-v>65", done[0].Keys.String())
	assert.Equal(t, "motion.down", done[1].ID())
}

func TestBuilderInvalid(t *testing.T) {
	tests := []struct {
		name string
		keys string
		err  error
	}{
		{"operator with action", "dx", ErrUnresolvedSequence},
		{"unbound key", "<F5>", ErrUnresolvedSequence},
		{"unbound g sequence", "gz", ErrUnresolvedSequence},
		{"bad register", "\"!", ErrInvalidArgument},
		{"special key as character", "f<F1>", ErrInvalidArgument},
		{"unknown digraph", "f<C-k>qq", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			res := f.last(mode.Normal, tt.keys)
			assert.Equal(t, StatusInvalid, res.Status)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Equal(t, StateIdle, f.builder.State(), "no residual state")
			assert.Equal(t, "", f.builder.Pending())

			cmd := f.command(mode.Normal, "w")
			assert.Equal(t, "motion.wordForward", cmd.ID())
			assert.Equal(t, 1, cmd.Count)
		})
	}
}

func TestBuilderVisual(t *testing.T) {
	tests := []struct {
		mode     mode.Mode
		keys     string
		operator string
		action   string
		enters   mode.Mode
	}{
		{mode.Visual, "d", "operator.delete", command.IDSelection, mode.Normal},
		{mode.Visual, "c", "operator.change", command.IDSelection, mode.Insert},
		{mode.VisualLine, "3>", "operator.indentRight", command.IDSelection, mode.Normal},
		{mode.Visual, "x", "operator.delete", command.IDSelection, mode.Normal},
		{mode.Visual, "iw", "", "textobject.innerWord", mode.None},
		{mode.Visual, "w", "", "motion.wordForward", mode.None},
		{mode.Visual, "v", "", "mode.visual", mode.Normal},
		{mode.Visual, "V", "", "mode.visualLine", mode.VisualLine},
		{mode.VisualLine, "J", "", "edit.joinLines", mode.Normal},
		{mode.Visual, "o", "", "visual.swapEnds", mode.None},
		{mode.Visual, "<C-d>", "", "scroll.halfPageDown", mode.None},
		{mode.Select, "z", "", command.IDSelectReplace, mode.Insert},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String()+" "+tt.keys, func(t *testing.T) {
			f := newFixture(t, Options{})
			cmd := f.command(tt.mode, tt.keys)
			assert.Equal(t, tt.operator, cmd.OperatorID())
			assert.Equal(t, tt.action, cmd.ID())
			assert.Equal(t, tt.enters, cmd.Enters)
		})
	}
}

func TestBuilderInsertMode(t *testing.T) {
	f := newFixture(t, Options{})

	results := f.feed(mode.Insert, "ab<CR>")
	require.Len(t, results, 3)
	assert.Equal(t, command.IDInsertChar, results[0].Command.ID())
	assert.Equal(t, 'a', results[0].Command.Argument.Char)
	assert.Equal(t, 'b', results[1].Command.Argument.Char)
	assert.Equal(t, "insert.newline", results[2].Command.ID())

	cmd := f.command(mode.Insert, "<C-k>a:")
	assert.Equal(t, "insert.digraph", cmd.ID())
	assert.Equal(t, 'ä', cmd.Argument.Char)

	cmd = f.command(mode.Insert, "<C-v>u20ac")
	assert.Equal(t, "insert.literal", cmd.ID())
	assert.Equal(t, '€', cmd.Argument.Char)

	assert.False(t, f.builder.CapturesEscape())
	f.builder.AddKey(Input{Event: key.Ctrl('v')}, mode.Insert)
	assert.True(t, f.builder.CapturesEscape())
	cmd = f.command(mode.Insert, "<Esc>")
	assert.Equal(t, rune(0x1b), cmd.Argument.Char)

	cmd = f.command(mode.Replace, "q")
	assert.Equal(t, command.IDReplaceChar, cmd.ID())

	res := f.last(mode.Insert, "<C-x>")
	assert.Equal(t, StatusInvalid, res.Status)
}

func TestBuilderInsertMappingPrefix(t *testing.T) {
	f := newFixture(t, Options{})
	f.nmap("i", "jk", "<Esc>", 0)

	res := f.builder.AddKey(Input{Event: key.Rune('j')}, mode.Insert)
	assert.Equal(t, StatusNeedsMoreInput, res.Status)
	res = f.builder.AddKey(Input{Event: key.Rune('k')}, mode.Insert)
	require.Equal(t, StatusExpand, res.Status)
	assert.Equal(t, "<Esc>", res.Mapping.Replacement.String())
	assert.Equal(t, "", f.builder.Pending(), "the lhs is replaced")

	results := f.feed(mode.Insert, "jx")
	require.Len(t, results, 2)
	assert.Equal(t, 'j', results[0].Command.Argument.Char)
	assert.Equal(t, 'x', results[1].Command.Argument.Char)

	f.builder.AddKey(Input{Event: key.Rune('j')}, mode.Insert)
	res = f.builder.ForceResolve(mode.Insert)
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, 'j', res.Command.Argument.Char)
}

func TestBuilderMappings(t *testing.T) {
	t.Run("ambiguous builtin defers to user mapping", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("n", "abc", "x", 0)

		f.builder.AddKey(Input{Event: key.Rune('a')}, mode.Normal)
		f.builder.AddKey(Input{Event: key.Rune('b')}, mode.Normal)
		res := f.builder.AddKey(Input{Event: key.Rune('d')}, mode.Normal)
		require.Equal(t, StatusComplete, res.Status)
		assert.Equal(t, "mode.append", res.Command.ID())
		require.Len(t, res.Requeue, 2)
		assert.Equal(t, 'b', res.Requeue[0].Event.Rune)
		assert.Equal(t, 'd', res.Requeue[1].Event.Rune)
		assert.Equal(t, "a", res.Command.Keys.String())
	})

	t.Run("noremap rhs uses builtins", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("n", "x", "dd", 0)
		results := f.feed(mode.Normal, "x")
		require.Len(t, results, 2)
		assert.Equal(t, StatusExpand, results[0].Status)
		assert.Equal(t, "edit.deleteLine", results[1].Command.ID())
	})

	t.Run("count survives expansion", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("n", "Q", "dd", 0)
		cmd := f.command(mode.Normal, "3Q")
		assert.Equal(t, "edit.deleteLine", cmd.ID())
		assert.Equal(t, 3, cmd.Count)
		assert.Equal(t, "3dd", cmd.Keys.String())
	})

	t.Run("operator pending mapping", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("o", "il", "$", 0)
		cmd := f.command(mode.Normal, "dil")
		assert.Equal(t, "operator.delete", cmd.OperatorID())
		assert.Equal(t, "motion.lineEnd", cmd.ID())
	})

	t.Run("deferred operator pending mapping", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("o", "x", "w", 0)
		f.nmap("o", "xy", "b", 0)
		results := f.feed(mode.Normal, "dxj")
		require.Len(t, results, 4)
		assert.Equal(t, StatusAwaitingArgument, results[0].Status)
		assert.Equal(t, StatusExpand, results[1].Status)
		cmd := results[2].Command
		require.NotNil(t, cmd)
		assert.Equal(t, "operator.delete", cmd.OperatorID())
		assert.Equal(t, "motion.wordForward", cmd.ID())
		assert.Equal(t, "dw", cmd.Keys.String())
		assert.Equal(t, "motion.down", results[3].Command.ID())
	})

	t.Run("force resolve picks the shorter binding", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("n", "ww", "dd", 0)
		res := f.builder.AddKey(Input{Event: key.Rune('w')}, mode.Normal)
		assert.Equal(t, StatusNeedsMoreInput, res.Status)
		res = f.builder.ForceResolve(mode.Normal)
		require.Equal(t, StatusComplete, res.Status)
		assert.Equal(t, "motion.wordForward", res.Command.ID())
	})

	t.Run("expansion depth", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.nmap("n", "Q", "j", keymap.FlagRecursive)
		res := f.builder.AddKey(Input{Event: key.Rune('Q'), Depth: 4}, mode.Normal)
		require.Equal(t, StatusExpand, res.Status)
		assert.Equal(t, 4, res.Depth)
	})
}

func TestBuilderCommandLine(t *testing.T) {
	tests := []struct {
		keys string
		id   string
		text string
	}{
		{":wq<CR>", command.IDExCommand, "wq"},
		{":ab<BS>c<CR>", command.IDExCommand, "ac"},
		{":foo bar<C-w><CR>", command.IDExCommand, "foo "},
		{":abc<C-u>q<CR>", command.IDExCommand, "q"},
		{":<C-v><Tab><CR>", command.IDExCommand, "\t"},
		{":<C-k>o:<CR>", command.IDExCommand, "ö"},
		{"/needle<CR>", "motion.searchForward", "needle"},
		{"?back<CR>", "motion.searchBackward", "back"},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			f := newFixture(t, Options{})
			cmd := f.command(mode.Normal, tt.keys)
			assert.Equal(t, tt.id, cmd.ID())
			assert.Equal(t, command.ArgExString, cmd.Argument.Type)
			assert.Equal(t, tt.text, cmd.Argument.Text)
		})
	}

	t.Run("prompt and text", func(t *testing.T) {
		f := newFixture(t, Options{})
		res := f.last(mode.Normal, ":s")
		assert.Equal(t, StatusAwaitingArgument, res.Status)
		prompt, text, ok := f.builder.CommandLine()
		require.True(t, ok)
		assert.Equal(t, ':', prompt)
		assert.Equal(t, "s", text)
	})

	t.Run("backspace on empty line cancels", func(t *testing.T) {
		f := newFixture(t, Options{})
		res := f.last(mode.Normal, ":<BS>")
		assert.Equal(t, StatusCancelled, res.Status)
		assert.NoError(t, res.Err)
		assert.Equal(t, StateIdle, f.builder.State())
	})

	t.Run("search as operator motion", func(t *testing.T) {
		f := newFixture(t, Options{})
		res := f.last(mode.Normal, "d/x")
		assert.Equal(t, StatusAwaitingArgument, res.Status)
		assert.Equal(t, command.ArgExString, res.Argument)
		_, text, ok := f.builder.CommandLine()
		require.True(t, ok)
		assert.Equal(t, "x", text)

		cmd := f.command(mode.Normal, "<CR>")
		assert.Equal(t, "operator.delete", cmd.OperatorID())
		assert.Equal(t, "motion.searchForward", cmd.ID())
		assert.Equal(t, "x", cmd.Argument.Motion.Argument.Text)
	})
}

func TestBuilderRecordToggle(t *testing.T) {
	recording := false
	f := newFixture(t, Options{Recorder: recorderFunc(func() bool { return recording })})

	cmd := f.command(mode.Normal, "qa")
	assert.Equal(t, command.IDRecord, cmd.ID())
	assert.Equal(t, 'a', cmd.Argument.Char)

	recording = true
	cmd = f.command(mode.Normal, "q")
	assert.Equal(t, command.IDStopRecord, cmd.ID())

	cmd = f.command(mode.Normal, "@a")
	assert.Equal(t, command.IDPlay, cmd.ID())
	assert.True(t, cmd.Flags.Has(command.FlagSelfSynchronizing))
}

func TestBuilderState(t *testing.T) {
	f := newFixture(t, Options{})
	b := f.builder
	assert.Equal(t, StateIdle, b.State())

	b.AddKey(Input{Event: key.Rune('2')}, mode.Normal)
	assert.Equal(t, StateAccumulatingMapping, b.State())

	b.AddKey(Input{Event: key.Rune('"')}, mode.Normal)
	assert.Equal(t, StateAwaitingArgument, b.State())
	b.AddKey(Input{Event: key.Rune('a')}, mode.Normal)
	assert.Equal(t, StateAccumulatingMapping, b.State())

	b.AddKey(Input{Event: key.Rune('y')}, mode.Normal)
	res := b.ForceResolve(mode.Normal)
	assert.Equal(t, StatusAwaitingArgument, res.Status)
	assert.Equal(t, StateOperatorPending, b.State())

	b.AddKey(Input{Event: key.Rune('f')}, mode.Normal)
	assert.Equal(t, StateAwaitingArgument, b.State())

	b.Reset()
	assert.Equal(t, StateIdle, b.State())
	assert.Equal(t, "", b.Pending())
}

func TestBuilderPending(t *testing.T) {
	f := newFixture(t, Options{})
	b := f.builder

	f.feed(mode.Normal, "\"a2<C-w>")
	assert.Equal(t, "\"a2^W", b.Pending())

	b.Reset()
	f.feed(mode.Normal, "123456789012")
	assert.Equal(t, "3456789012", b.Pending())

	b.Reset()
	f.feed(mode.Insert, "<C-k>")
	assert.Equal(t, "^K?", b.Pending())
}

func TestNewBuilderMissingDefinition(t *testing.T) {
	_, err := NewBuilder(keymap.NewRegistry(nil), command.NewRegistry(), Options{})
	assert.ErrorIs(t, err, ErrMissingDefinition)
}

func TestCountState(t *testing.T) {
	var c CountState
	assert.False(t, c.AccumulateDigit('0'), "leading zero is not a count")
	assert.False(t, c.Active)
	assert.Equal(t, 1, c.Get())

	assert.True(t, c.AccumulateDigit('1'))
	assert.True(t, c.AccumulateDigit('0'))
	assert.Equal(t, 10, c.Get())
	assert.Equal(t, "10", c.String())
	assert.False(t, c.AccumulateDigit('x'))

	for i := 0; i < 40; i++ {
		c.AccumulateDigit('9')
	}
	assert.Equal(t, maxCount, c.Get(), "count is capped instead of overflowing")

	c.Reset()
	assert.False(t, c.Active)
	assert.Equal(t, "", c.String())
}

func TestCombineCounts(t *testing.T) {
	tests := []struct {
		a, b int
		want int
	}{
		{0, 0, 1},
		{3, 0, 3},
		{0, 4, 4},
		{2, 3, 6},
		{-1, 5, 5},
		{math.MaxInt / 2, 3, maxCount},
	}
	for _, tt := range tests {
		if got := CombineCounts(tt.a, tt.b); got != tt.want {
			t.Errorf("CombineCounts(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegisterNames(t *testing.T) {
	tests := []struct {
		name rune
		want RegisterType
	}{
		{'a', RegisterNamed},
		{'Z', RegisterNamed},
		{'0', RegisterLastYank},
		{'5', RegisterNumbered},
		{'"', RegisterUnnamed},
		{'_', RegisterBlackHole},
		{'+', RegisterClipboard},
		{':', RegisterCommand},
		{'!', RegisterInvalid},
		{'@', RegisterInvalid},
	}
	for _, tt := range tests {
		if got := GetRegisterType(tt.name); got != tt.want {
			t.Errorf("GetRegisterType(%q) = %v, want %v", tt.name, got, tt.want)
		}
		if got := IsValidRegister(tt.name); got != (tt.want != RegisterInvalid) {
			t.Errorf("IsValidRegister(%q) = %v", tt.name, got)
		}
	}
	assert.True(t, IsReadOnly('%'))
	assert.False(t, IsReadOnly('a'))
}
