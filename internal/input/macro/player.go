package macro

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dshills/modalkeys/internal/input/key"
)

// DefaultMaxDepth bounds the number of nested macro frames.
const DefaultMaxDepth = 1000

// ErrCancelled is returned by Play when Cancel stopped playback.
var ErrCancelled = errors.New("macro playback cancelled")

// Handler processes a replayed key event. Returning an error aborts the
// whole playback, including every enclosing macro.
type Handler func(event key.Event) error

// frame is one macro invocation on the playback stack.
type frame struct {
	register  rune
	events    key.Sequence
	index     int
	remaining int
	handler   Handler
}

func (f *frame) exhausted() bool {
	return f.index >= len(f.events) && f.remaining == 0
}

// Player replays recorded macros. Keys are fed through the handler one at
// a time. A handler may call Play again (a macro that plays a macro); the
// request pushes a frame and returns, and the outermost Play drains the
// stack iteratively, so playback never recurses on the Go stack.
//
// A Player belongs to one editing surface and is not safe for concurrent
// use. Registers are shared through the Recorder.
type Player struct {
	recorder  *Recorder
	maxDepth  int
	keyBudget int

	frames    []frame
	draining  bool
	cancelled atomic.Bool
	active    atomic.Bool
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithMaxDepth sets the maximum number of nested macro frames.
func WithMaxDepth(depth int) PlayerOption {
	return func(p *Player) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithKeyBudget limits the number of keys a single playback may feed.
// Zero means unlimited.
func WithKeyBudget(keys int) PlayerOption {
	return func(p *Player) {
		p.keyBudget = max(keys, 0)
	}
}

// NewPlayer creates a new macro player that uses the given recorder for macro storage.
func NewPlayer(recorder *Recorder, opts ...PlayerOption) *Player {
	p := &Player{
		recorder: recorder,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play replays a macro from the specified register count times.
//
// The register may be a letter or digit, an uppercase letter (played as
// its lowercase register) or '@' for the register played last. When
// called from within a handler the macro is queued in front of the
// remaining keys and Play returns nil immediately.
func (p *Player) Play(register rune, count int, handler Handler) error {
	if handler == nil {
		return errors.New("macro: handler cannot be nil")
	}

	name, err := p.resolve(register)
	if err != nil {
		return err
	}

	events := p.recorder.Get(name)
	if len(events) == 0 {
		return fmt.Errorf("%w: %c", ErrEmptyRegister, name)
	}
	count = max(count, 1)

	// A macro whose last key replays it leaves an exhausted frame behind.
	// Dropping it first keeps self-recursive macros at constant depth.
	for len(p.frames) > 0 && p.frames[len(p.frames)-1].exhausted() {
		p.pop()
	}
	if len(p.frames) >= p.maxDepth {
		return fmt.Errorf("%w: %d frames", ErrPlaybackDepth, len(p.frames))
	}

	p.frames = append(p.frames, frame{
		register:  name,
		events:    events,
		remaining: count - 1,
		handler:   handler,
	})
	p.recorder.beginPlay(name)
	p.recorder.SetLastPlayed(name)

	if p.draining {
		return nil
	}
	return p.drain()
}

// PlayLast replays the last played macro.
// Equivalent to @@ in Vim.
func (p *Player) PlayLast(count int, handler Handler) error {
	return p.Play(LastPlayedRegister, count, handler)
}

// IsPlaying returns true if a macro is currently being played.
func (p *Player) IsPlaying() bool {
	return p.active.Load()
}

// Depth returns the number of macro frames on the playback stack.
func (p *Player) Depth() int {
	return len(p.frames)
}

// Cancel stops the currently playing macro before its next key.
// Safe to call from any goroutine, even if no macro is playing.
func (p *Player) Cancel() {
	if p.active.Load() {
		p.cancelled.Store(true)
	}
}

func (p *Player) resolve(register rune) (rune, error) {
	if register == LastPlayedRegister {
		last := p.recorder.LastPlayed()
		if last == 0 {
			return 0, ErrNoLastPlayed
		}
		return last, nil
	}
	name := NormalizeRegister(register)
	if name == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRegister, register)
	}
	return name, nil
}

func (p *Player) drain() error {
	p.draining = true
	p.active.Store(true)
	p.cancelled.Store(false)
	defer func() {
		p.draining = false
		p.active.Store(false)
	}()

	fed := 0
	for len(p.frames) > 0 {
		if p.cancelled.Swap(false) {
			p.abort()
			return ErrCancelled
		}

		top := &p.frames[len(p.frames)-1]
		if top.index >= len(top.events) {
			if top.remaining == 0 {
				p.pop()
				continue
			}
			top.remaining--
			top.index = 0
		}

		ev, handler := top.events[top.index], top.handler
		top.index++

		if p.keyBudget > 0 {
			if fed++; fed > p.keyBudget {
				p.abort()
				return fmt.Errorf("%w: %d keys", ErrKeyBudget, p.keyBudget)
			}
		}
		if err := handler(ev); err != nil {
			p.abort()
			return err
		}
	}
	return nil
}

func (p *Player) pop() {
	last := len(p.frames) - 1
	p.recorder.endPlay(p.frames[last].register)
	p.frames[last] = frame{}
	p.frames = p.frames[:last]
}

// Reset discards every frame, for a caller recovering from a panic
// raised by a handler.
func (p *Player) Reset() {
	p.abort()
	p.draining = false
	p.active.Store(false)
	p.cancelled.Store(false)
}

// abort discards every pending frame.
func (p *Player) abort() {
	for len(p.frames) > 0 {
		p.pop()
	}
}
