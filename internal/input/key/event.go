package key

import (
	"fmt"
	"time"
	"unicode"
)

// Event represents a single key press event.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods, Timestamp: time.Now()}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods, Timestamp: time.Now()}
}

// Rune is shorthand for an unmodified character event.
func Rune(r rune) Event {
	return NewRuneEvent(r, ModNone)
}

// Ctrl is shorthand for a Ctrl+character event.
func Ctrl(r rune) Event {
	return NewRuneEvent(r, ModCtrl)
}

// Special is shorthand for an unmodified special key event.
func Special(k Key) Event {
	return NewSpecialEvent(k, ModNone)
}

// ID is the comparable identity of a key press. Two events with the
// same ID are the same keystroke for every lookup in the engine.
type ID struct {
	Key  Key
	Rune rune
	Mods Modifier
}

// ID returns the normalized identity of the event. Shift is folded into
// the character for rune keys, KeySpace becomes the ' ' rune and
// Ctrl+letter is case-insensitive, matching how Vim compares keys.
func (e Event) ID() ID {
	k, r, m := e.Key, e.Rune, e.Modifiers
	if k == KeySpace {
		k, r = KeyRune, ' '
	}
	if k != KeyRune {
		return ID{Key: k, Mods: m}
	}
	m = m.Without(ModShift)
	if m.Has(ModCtrl) && unicode.IsLetter(r) {
		r = unicode.ToLower(r)
	}
	return ID{Key: KeyRune, Rune: r, Mods: m}
}

// Event converts the identity back into an event with no timestamp.
func (id ID) Event() Event {
	return Event{Key: id.Key, Rune: id.Rune, Modifiers: id.Mods}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return (e.Key == KeyRune && e.Rune != 0) || e.Key == KeySpace
}

// Char returns the character of a rune event, or 0.
func (e Event) Char() rune {
	if e.Key == KeySpace {
		return ' '
	}
	if e.Key == KeyRune {
		return e.Rune
	}
	return 0
}

// IsModified returns true if Ctrl, Alt or Meta is held.
// Shift alone does not count for characters since it changes the character itself.
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers.Has(ModCtrl | ModAlt | ModMeta)
	}
	return e.Modifiers != ModNone
}

// IsPrintable returns true for an unmodified printable character.
func (e Event) IsPrintable() bool {
	return e.IsRune() && !e.IsModified() && unicode.IsPrint(e.Char())
}

// IsDigit returns true for an unmodified '0'..'9'.
func (e Event) IsDigit() bool {
	return e.Key == KeyRune && !e.IsModified() && e.Rune >= '0' && e.Rune <= '9'
}

// IsEscape returns true for <Esc>, <C-[> and <C-c>, the three keys Vim
// treats as cancellation.
func (e Event) IsEscape() bool {
	if e.Key == KeyEscape && e.Modifiers == ModNone {
		return true
	}
	id := e.ID()
	return id.Key == KeyRune && id.Mods == ModCtrl && (id.Rune == '[' || id.Rune == 'c')
}

// IsEnter returns true for <CR>, also accepting <C-m> and <C-j>.
func (e Event) IsEnter() bool {
	if e.Key == KeyEnter && e.Modifiers == ModNone {
		return true
	}
	id := e.ID()
	return id.Key == KeyRune && id.Mods == ModCtrl && (id.Rune == 'm' || id.Rune == 'j')
}

// IsBackspace returns true for <BS> and <C-h>.
func (e Event) IsBackspace() bool {
	if e.Key == KeyBackspace && e.Modifiers == ModNone {
		return true
	}
	return e.Is(Ctrl('h'))
}

// Is reports whether e is the same keystroke as other.
func (e Event) Is(other Event) bool {
	return e.ID() == other.ID()
}

// Equals returns true if two events represent the same key press.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Is(other)
}

// VimString returns a Vim-style string representation.
// Examples: "<Esc>", "<C-s>", "<S-Tab>", "<CR>", "a", "A", "<lt>"
func (e Event) VimString() string {
	id := e.ID()
	if id.Key == KeyRune {
		if id.Mods == ModNone {
			switch id.Rune {
			case ' ':
				return "<Space>"
			case '<':
				return "<lt>"
			}
			return string(id.Rune)
		}
		name := string(id.Rune)
		if id.Rune == ' ' {
			name = "Space"
		}
		return "<" + id.Mods.VimPrefix() + name + ">"
	}
	return "<" + id.Mods.VimPrefix() + id.Key.String() + ">"
}

// String returns the Vim notation of the event.
func (e Event) String() string {
	return e.VimString()
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}
