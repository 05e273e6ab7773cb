package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse errors
var (
	ErrEmptySpec        = errors.New("empty key specification")
	ErrInvalidSpec      = errors.New("invalid key specification")
	ErrUnmatchedBracket = errors.New("unmatched bracket in key specification")
)

// Parse parses a single key specification.
//
// Supported formats:
//   - Single character: "a", "A", "1", "@"
//   - Vim notation: "<C-s>", "<A-f>", "<S-Tab>", "<CR>", "<Esc>", "<lt>"
func Parse(spec string) (Event, error) {
	if spec == "" {
		return Event{}, ErrEmptySpec
	}
	if strings.HasPrefix(spec, "<") && len(spec) > 1 {
		if !strings.HasSuffix(spec, ">") {
			return Event{}, fmt.Errorf("%w: %q", ErrUnmatchedBracket, spec)
		}
		ev, ok := parseBracketed(spec[1 : len(spec)-1])
		if !ok {
			return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		return ev, nil
	}
	r, size := utf8.DecodeRuneInString(spec)
	if size != len(spec) {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
	}
	return Rune(r), nil
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Event {
	ev, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return ev
}

// ParseSequence parses a string in Vim mapping notation, such as
// "3d<C-w><lt>x", into a key sequence. Like Vim, a "<" that does not
// start a recognized key name is taken literally. "<Nop>" produces no keys.
func ParseSequence(notation string) (Sequence, error) {
	var seq Sequence
	for i := 0; i < len(notation); {
		if notation[i] == '<' {
			if end := strings.IndexByte(notation[i+1:], '>'); end > 0 {
				inner := notation[i+1 : i+1+end]
				if strings.EqualFold(inner, "nop") {
					i += end + 2
					continue
				}
				if ev, ok := parseBracketed(inner); ok {
					seq = append(seq, ev)
					i += end + 2
					continue
				}
			}
		}
		r, size := utf8.DecodeRuneInString(notation[i:])
		if r == utf8.RuneError && size <= 1 {
			return nil, fmt.Errorf("%w: invalid UTF-8 at offset %d", ErrInvalidSpec, i)
		}
		seq = append(seq, Rune(r))
		i += size
	}
	return seq, nil
}

// MustParseSequence parses notation and panics on error.
func MustParseSequence(notation string) Sequence {
	seq, err := ParseSequence(notation)
	if err != nil {
		panic("invalid key notation: " + notation + ": " + err.Error())
	}
	return seq
}

// parseBracketed parses the inside of a <...> group, e.g. "C-S-p" or "CR".
func parseBracketed(inner string) (Event, bool) {
	if inner == "" {
		return Event{}, false
	}
	var mods Modifier
	// Modifiers are single letters followed by '-'. A trailing "-" is the
	// minus key itself, as in <C-->.
	for len(inner) > 2 && inner[1] == '-' {
		m := modifierFromVim(inner[:1])
		if m == ModNone {
			return Event{}, false
		}
		mods = mods.With(m)
		inner = inner[2:]
	}

	lower := strings.ToLower(inner)
	if k, ok := keyNameMap[lower]; ok {
		return NewSpecialEvent(k, mods), true
	}
	if r, ok := runeNameMap[lower]; ok {
		return NewRuneEvent(r, mods), true
	}
	r, size := utf8.DecodeRuneInString(inner)
	if size != len(inner) || mods == ModNone {
		return Event{}, false
	}
	if mods.Has(ModShift) && unicode.IsLetter(r) && !mods.Has(ModCtrl) {
		r = unicode.ToUpper(r)
	}
	return NewRuneEvent(r, mods), true
}
