package macro

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkeys/internal/input/key"
)

func seq(t *testing.T, notation string) key.Sequence {
	t.Helper()
	s, err := key.ParseSequence(notation)
	require.NoError(t, err)
	return s
}

// ==================== Register Tests ====================

func TestIsValidRegister(t *testing.T) {
	tests := []struct {
		input rune
		want  bool
	}{
		{'a', true},
		{'z', true},
		{'0', true},
		{'9', true},
		{'A', false}, // appends, but is not itself a register
		{'@', false},
		{':', false},
		{' ', false},
		{0, false},
	}

	for _, tt := range tests {
		if got := IsValidRegister(tt.input); got != tt.want {
			t.Errorf("IsValidRegister(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeRegister(t *testing.T) {
	tests := []struct {
		input rune
		want  rune
	}{
		{'a', 'a'},
		{'A', 'a'},
		{'Z', 'z'},
		{'5', '5'},
		{'!', 0},
	}

	for _, tt := range tests {
		if got := NormalizeRegister(tt.input); got != tt.want {
			t.Errorf("NormalizeRegister(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAllRegisters(t *testing.T) {
	regs := AllRegisters()
	assert.Len(t, regs, 36)
	assert.Equal(t, 'a', regs[0])
	assert.Equal(t, '9', regs[35])
}

// ==================== Recorder Tests ====================

func TestRecorderRecordAndStop(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.StartRecording('a'))
	assert.True(t, r.IsRecording())
	assert.Equal(t, 'a', r.CurrentRegister())

	for _, ev := range seq(t, "xjq") {
		r.Record(ev)
	}
	assert.Equal(t, 3, r.CurrentRecordingLength())

	saved, err := r.StopRecording(1)
	require.NoError(t, err)
	assert.Equal(t, "xj", saved.String())
	assert.Equal(t, "xj", r.Get('a').String())
	assert.False(t, r.IsRecording())
	assert.Equal(t, rune(0), r.CurrentRegister())
}

func TestRecorderErrors(t *testing.T) {
	r := NewRecorder()

	assert.ErrorIs(t, r.StartRecording('!'), ErrInvalidRegister)

	_, err := r.StopRecording(0)
	assert.ErrorIs(t, err, ErrNotRecording)

	require.NoError(t, r.StartRecording('a'))
	assert.ErrorIs(t, r.StartRecording('b'), ErrAlreadyRecording)
}

func TestRecorderUppercaseAppends(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "dw")))

	require.NoError(t, r.StartRecording('A'))
	for _, ev := range seq(t, "jq") {
		r.Record(ev)
	}
	_, err := r.StopRecording(1)
	require.NoError(t, err)

	assert.Equal(t, "dwj", r.Get('a').String())
	assert.Equal(t, "dwj", r.Get('A').String())
}

func TestRecorderEmptyRecordingClears(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "x")))
	require.NoError(t, r.StartRecording('a'))
	r.Record(key.Rune('q'))

	_, err := r.StopRecording(5)
	require.NoError(t, err)
	assert.False(t, r.HasMacro('a'))
}

func TestRecorderRecordWhenIdle(t *testing.T) {
	r := NewRecorder()
	r.Record(key.Rune('x'))
	assert.Equal(t, 0, r.CurrentRecordingLength())
	assert.Empty(t, r.ListRegisters())
}

func TestRecorderSetAppendClear(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('b', seq(t, "<C-w>j")))
	require.NoError(t, r.Append('b', seq(t, "x")))
	assert.Equal(t, "<C-w>jx", r.Get('b').String())
	assert.Equal(t, 3, r.EventCount('b'))

	require.NoError(t, r.Set('B', seq(t, "y")))
	assert.Equal(t, "<C-w>jxy", r.Get('b').String())

	require.NoError(t, r.Set('c', seq(t, "p")))
	assert.Equal(t, []rune{'b', 'c'}, r.ListRegisters())

	require.NoError(t, r.Clear('b'))
	assert.False(t, r.HasMacro('b'))
	assert.ErrorIs(t, r.Clear('!'), ErrInvalidRegister)

	r.SetLastPlayed('c')
	r.ClearAll()
	assert.Empty(t, r.ListRegisters())
	assert.Equal(t, rune(0), r.LastPlayed())
}

func TestRecorderGetReturnsCopy(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "ab")))
	got := r.Get('a')
	got[0] = key.Rune('z')
	assert.Equal(t, "ab", r.Get('a').String())
}

func TestListRegisterInfo(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('z', seq(t, "dd")))
	require.NoError(t, r.Set('a', seq(t, "<Esc>")))

	info := ListRegisterInfo(r)
	require.Len(t, info, 2)
	assert.Equal(t, RegisterInfo{Name: 'a', EventCount: 1, Keys: "<Esc>"}, info[0])
	assert.Equal(t, RegisterInfo{Name: 'z', EventCount: 2, Keys: "dd"}, info[1])
}

// ==================== Player Tests ====================

func collect(out *key.Sequence) Handler {
	return func(ev key.Event) error {
		*out = append(*out, ev)
		return nil
	}
}

func TestPlayerPlayCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{1, "xj"},
		{3, "xjxjxj"},
	}

	for _, tt := range tests {
		r := NewRecorder()
		if err := r.Set('a', seq(t, "xj")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		p := NewPlayer(r)

		var got key.Sequence
		if err := p.Play('a', tt.count, collect(&got)); err != nil {
			t.Fatalf("Play(%d) error = %v", tt.count, err)
		}
		if got.String() != tt.want {
			t.Errorf("Play(%d) fed %q, want %q", tt.count, got.String(), tt.want)
		}
		if r.LastPlayed() != 'a' {
			t.Errorf("LastPlayed() = %q, want 'a'", r.LastPlayed())
		}
		if p.Depth() != 0 || p.IsPlaying() || r.IsPlaying('a') {
			t.Errorf("player still active after Play(%d)", tt.count)
		}
	}
}

func TestPlayerErrors(t *testing.T) {
	r := NewRecorder()
	p := NewPlayer(r)
	h := func(key.Event) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid register", p.Play('!', 1, h), ErrInvalidRegister},
		{"empty register", p.Play('a', 1, h), ErrEmptyRegister},
		{"nothing played yet", p.PlayLast(1, h), ErrNoLastPlayed},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
	if err := p.Play('a', 1, nil); err == nil {
		t.Error("Play() with a nil handler should fail")
	}
}

func TestPlayerPlayLastAndUppercase(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('q', seq(t, "w")))
	p := NewPlayer(r)

	var got key.Sequence
	require.NoError(t, p.Play('Q', 1, collect(&got)))
	require.NoError(t, p.PlayLast(2, collect(&got)))
	require.NoError(t, p.Play('@', 1, collect(&got)))
	assert.Equal(t, "wwww", got.String())
}

func TestPlayerHandlerErrorAbortsAllFrames(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "x@bx")))
	require.NoError(t, r.Set('b', seq(t, "yEy")))
	p := NewPlayer(r)

	errStop := errors.New("stop")
	var got key.Sequence
	var handler Handler
	handler = func(ev key.Event) error {
		got = append(got, ev)
		switch ev.Char() {
		case 'b':
			return p.Play('b', 1, handler)
		case 'E':
			return errStop
		}
		return nil
	}

	err := p.Play('a', 5, handler)
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, "x@byE", got.String())
	assert.Equal(t, 0, p.Depth())
	assert.False(t, r.IsPlaying('a'))
	assert.False(t, r.IsPlaying('b'))
}

func TestPlayerNestedOrder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "1@b2")))
	require.NoError(t, r.Set('b', seq(t, "xy")))
	p := NewPlayer(r)

	var got key.Sequence
	var handler Handler
	handler = func(ev key.Event) error {
		got = append(got, ev)
		if ev.Char() == 'b' {
			return p.Play('b', 2, handler)
		}
		return nil
	}

	require.NoError(t, p.Play('a', 1, handler))
	assert.Equal(t, "1@bxyxy2", got.String())
	assert.Equal(t, 'b', r.LastPlayed())
}

func TestPlayerMillionIterations(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "jx")))
	p := NewPlayer(r)

	n := 0
	maxDepth := 0
	err := p.Play('a', 1_000_000, func(key.Event) error {
		n++
		maxDepth = max(maxDepth, p.Depth())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2_000_000, n)
	assert.Equal(t, 1, maxDepth)
}

func TestPlayerSelfRecursiveConstantDepth(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "x@a")))
	p := NewPlayer(r, WithMaxDepth(3))

	errEnd := errors.New("end of buffer")
	xs, maxDepth := 0, 0
	var handler Handler
	handler = func(ev key.Event) error {
		maxDepth = max(maxDepth, p.Depth())
		switch ev.Char() {
		case 'x':
			if xs++; xs == 1_000_000 {
				return errEnd
			}
		case 'a':
			return p.Play('a', 1, handler)
		}
		return nil
	}

	err := p.Play('a', 1, handler)
	assert.ErrorIs(t, err, errEnd)
	assert.Equal(t, 1_000_000, xs)
	assert.Equal(t, 1, maxDepth)
	assert.Equal(t, 0, p.Depth())
}

func TestPlayerDepthLimit(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "@bx")))
	require.NoError(t, r.Set('b', seq(t, "@ax")))
	p := NewPlayer(r, WithMaxDepth(10))

	var handler Handler
	handler = func(ev key.Event) error {
		if ev.Char() == 'a' || ev.Char() == 'b' {
			return p.Play(ev.Char(), 1, handler)
		}
		return nil
	}

	err := p.Play('a', 1, handler)
	assert.ErrorIs(t, err, ErrPlaybackDepth)
	assert.Equal(t, 0, p.Depth())
}

func TestPlayerKeyBudget(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "abc")))
	p := NewPlayer(r, WithKeyBudget(4))

	var got key.Sequence
	err := p.Play('a', 2, collect(&got))
	assert.ErrorIs(t, err, ErrKeyBudget)
	assert.Equal(t, "abca", got.String())
}

func TestPlayerCancel(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "abc")))
	p := NewPlayer(r)

	p.Cancel() // no effect while idle

	var got key.Sequence
	err := p.Play('a', 1, func(ev key.Event) error {
		got = append(got, ev)
		p.Cancel()
		return nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, "a", got.String())
}

func TestRecordingRegisterBeingPlayed(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "qaxq")))
	p := NewPlayer(r)

	var recErr error
	var got key.Sequence
	err := p.Play('a', 1, func(ev key.Event) error {
		got = append(got, ev)
		if ev.Char() == 'a' && recErr == nil {
			recErr = r.StartRecording('a')
		}
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, recErr, ErrRecursiveRecording)
	assert.Equal(t, "qaxq", got.String(), "playback continues")
	assert.Equal(t, "qaxq", r.Get('a').String())
	assert.False(t, r.IsRecording())

	require.NoError(t, r.StartRecording('a'), "allowed once playback ends")
}

// ==================== Persistence Tests ====================

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "macros.json")

	r := NewRecorder()
	require.NoError(t, r.Set('a', seq(t, "d<C-w>j<lt><Space>")))
	require.NoError(t, r.Set('7', seq(t, "<Esc>:w<CR>")))
	r.SetLastPlayed('7')
	r.SetLastCommand("s/a/b/")
	require.NoError(t, Save(r, path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded := NewRecorder()
	require.NoError(t, JSONFile{Path: path}.Load(loaded))
	assert.Equal(t, "d<C-w>j<lt><Space>", loaded.Get('a').String())
	assert.Equal(t, "<Esc>:w<CR>", loaded.Get('7').String())
	assert.Equal(t, '7', loaded.LastPlayed())
	assert.Equal(t, "s/a/b/", loaded.LastCommand())
}

func TestLoadMissingFile(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, Load(r, filepath.Join(t.TempDir(), "none.json")))
	assert.Empty(t, r.ListRegisters())
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.json")
	require.NoError(t, LoadOrCreate(NewRecorder(), path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "macros": []}`), 0o644))
	assert.Error(t, Load(NewRecorder(), path))
}

func TestExportImportMerge(t *testing.T) {
	src := NewRecorder()
	require.NoError(t, src.Set('a', seq(t, "xx")))
	require.NoError(t, src.Set('b', seq(t, "yy")))
	data, err := Export(src)
	require.NoError(t, err)

	dst := NewRecorder()
	require.NoError(t, dst.Set('a', seq(t, "keep")))
	require.NoError(t, Import(dst, data, true))
	assert.Equal(t, "keep", dst.Get('a').String())
	assert.Equal(t, "yy", dst.Get('b').String())

	require.NoError(t, Import(dst, data, false))
	assert.Equal(t, "xx", dst.Get('a').String())
}

func TestImportSkipsInvalidRegisters(t *testing.T) {
	r := NewRecorder()
	data := []byte(`{"version": 2, "macros": [{"register": "!", "keys": "x"}, {"register": "c", "keys": "<C-a>"}]}`)
	require.NoError(t, Import(r, data, false))
	assert.Equal(t, []rune{'c'}, r.ListRegisters())
}
