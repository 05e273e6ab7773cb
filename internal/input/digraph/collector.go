package digraph

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dshills/modalkeys/internal/input/key"
)

// Errors reported for input that cannot form a character.
var (
	ErrUnknownDigraph = errors.New("unknown digraph")
	ErrInvalidLiteral = errors.New("key cannot be entered literally")
	ErrInvalidCode    = errors.New("invalid character code")
)

// Status is the state of a collection after one key.
type Status uint8

const (
	// Pending means more keys are needed.
	Pending Status = iota

	// Resolved means Char holds the collected character.
	Resolved

	// Invalid means the keys do not form a character; Err says why.
	Invalid
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of Consume.
type Result struct {
	Status Status
	Char   rune

	// Requeue holds a key that ended numeric entry without being part
	// of it. The caller must process it next.
	Requeue key.Sequence

	Err error
}

type state uint8

const (
	stateIdle state = iota
	stateDigraphFirst
	stateDigraphSecond
	stateLiteralStart
	stateNumeric
)

// Collector turns the keys following <C-k> or <C-v> into one character.
// It holds no state between completions.
type Collector struct {
	state state

	first rune

	// numeric entry
	prefix    rune
	base      int
	maxDigits int
	maxValue  int64
	digits    int
	value     int64
}

// numericForms lists the <C-v> prefixes and their limits.
var numericForms = map[rune]struct {
	base      int
	maxDigits int
	maxValue  int64
}{
	'o': {8, 3, 0o377},
	'O': {8, 3, 0o377},
	'x': {16, 2, 0xff},
	'X': {16, 2, 0xff},
	'u': {16, 4, 0xffff},
	'U': {16, 8, 0x7fffffff},
}

// StartDigraph begins two-key digraph entry (after <C-k>).
func (c *Collector) StartDigraph() {
	*c = Collector{state: stateDigraphFirst}
}

// StartLiteral begins literal or numeric entry (after <C-v>).
func (c *Collector) StartLiteral() {
	*c = Collector{state: stateLiteralStart}
}

// Active reports whether a collection is in progress.
func (c *Collector) Active() bool {
	return c.state != stateIdle
}

// Literal reports whether <C-v> entry is in progress. Such entry
// accepts keys that would otherwise cancel, such as <Esc>.
func (c *Collector) Literal() bool {
	return c.state == stateLiteralStart || c.state == stateNumeric
}

// Reset abandons any collection in progress.
func (c *Collector) Reset() {
	*c = Collector{}
}

// Pending returns the placeholder Vim shows while collecting:
// "?" after <C-k>, "^" after <C-v>, or the keys typed so far.
func (c *Collector) Pending() string {
	switch c.state {
	case stateDigraphFirst:
		return "?"
	case stateDigraphSecond:
		return string(c.first)
	case stateLiteralStart:
		return "^"
	case stateNumeric:
		if c.prefix != 0 {
			return "^" + string(c.prefix)
		}
		return "^"
	}
	return ""
}

// Consume feeds one key to the collection.
func (c *Collector) Consume(ev key.Event) Result {
	switch c.state {
	case stateDigraphFirst:
		if !ev.IsPrintable() {
			return c.fail(fmt.Errorf("%w: %s", ErrUnknownDigraph, ev))
		}
		c.first = ev.Char()
		c.state = stateDigraphSecond
		return Result{Status: Pending}

	case stateDigraphSecond:
		if !ev.IsPrintable() {
			return c.fail(fmt.Errorf("%w: %c%s", ErrUnknownDigraph, c.first, ev))
		}
		r, ok := Lookup(c.first, ev.Char())
		if !ok {
			return c.fail(fmt.Errorf("%w: %c%c", ErrUnknownDigraph, c.first, ev.Char()))
		}
		return c.resolve(r, nil)

	case stateLiteralStart:
		return c.literalStart(ev)

	case stateNumeric:
		return c.numeric(ev)
	}
	return Result{Status: Invalid, Err: errors.New("collector not started")}
}

func (c *Collector) literalStart(ev key.Event) Result {
	if ev.IsDigit() {
		c.state = stateNumeric
		c.base, c.maxDigits, c.maxValue = 10, 3, 255
		return c.numeric(ev)
	}
	if ev.IsRune() && !ev.IsModified() {
		if form, ok := numericForms[ev.Char()]; ok {
			c.state = stateNumeric
			c.prefix = ev.Char()
			c.base, c.maxDigits, c.maxValue = form.base, form.maxDigits, form.maxValue
			return Result{Status: Pending}
		}
	}
	r, ok := literalRune(ev)
	if !ok {
		return c.fail(fmt.Errorf("%w: %s", ErrInvalidLiteral, ev))
	}
	return c.resolve(r, nil)
}

func (c *Collector) numeric(ev key.Event) Result {
	d, ok := digitValue(ev, c.base)
	if !ok {
		// A non-digit ends the code and is processed on its own.
		requeue := key.Sequence{ev}
		if c.digits == 0 {
			// "<C-v>xg" inserts the x itself.
			return c.resolve(c.prefix, requeue)
		}
		return c.finish(requeue)
	}
	next := c.value*int64(c.base) + int64(d)
	if next > c.maxValue {
		return c.finish(key.Sequence{ev})
	}
	c.value = next
	c.digits++
	if c.digits == c.maxDigits {
		return c.finish(nil)
	}
	return Result{Status: Pending}
}

func (c *Collector) finish(requeue key.Sequence) Result {
	r := rune(c.value)
	if !utf8.ValidRune(r) {
		res := c.fail(fmt.Errorf("%w: %#x", ErrInvalidCode, c.value))
		res.Requeue = requeue
		return res
	}
	return c.resolve(r, requeue)
}

func (c *Collector) resolve(r rune, requeue key.Sequence) Result {
	c.Reset()
	return Result{Status: Resolved, Char: r, Requeue: requeue}
}

func (c *Collector) fail(err error) Result {
	c.Reset()
	return Result{Status: Invalid, Err: err}
}

func digitValue(ev key.Event, base int) (int, bool) {
	if ev.Key != key.KeyRune || ev.IsModified() {
		return 0, false
	}
	r := ev.Rune
	var d int
	switch {
	case r >= '0' && r <= '9':
		d = int(r - '0')
	case r >= 'a' && r <= 'f':
		d = int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		d = int(r-'A') + 10
	default:
		return 0, false
	}
	if d >= base {
		return 0, false
	}
	return d, true
}

// literalRune returns the character a key produces when entered with <C-v>.
func literalRune(ev key.Event) (rune, bool) {
	id := ev.ID()
	switch id.Key {
	case key.KeyRune:
		if id.Mods.Has(key.ModCtrl) {
			r := id.Rune
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 1, true
			case r >= '@' && r <= '_':
				return r - '@', true
			case r == '?':
				return 0x7f, true
			}
			return 0, false
		}
		if id.Mods != key.ModNone {
			return 0, false
		}
		return id.Rune, true
	case key.KeyEnter:
		return '\r', true
	case key.KeyTab:
		return '\t', true
	case key.KeyEscape:
		return 0x1b, true
	case key.KeyBackspace:
		return 0x08, true
	case key.KeyDelete:
		return 0x7f, true
	}
	return 0, false
}
