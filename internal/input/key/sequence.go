package key

import "strings"

// Sequence is an ordered list of key events, e.g. "gg", "diw" or "<C-w>j".
type Sequence []Event

// IDs returns the normalized identities of the events.
func (s Sequence) IDs() []ID {
	ids := make([]ID, len(s))
	for i, e := range s {
		ids[i] = e.ID()
	}
	return ids
}

// Equal reports whether both sequences contain the same keystrokes.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].ID() != other[i].ID() {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading part of s.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)].Equal(prefix)
}

// Clone returns an independent copy of the sequence.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// String returns the sequence in Vim notation, e.g. "d<C-w>".
func (s Sequence) String() string {
	var b strings.Builder
	for _, e := range s {
		b.WriteString(e.VimString())
	}
	return b.String()
}
