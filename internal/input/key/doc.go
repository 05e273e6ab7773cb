// Package key provides keyboard event types and Vim key notation.
//
// An Event is a single key press as reported by the host. Events are
// compared through their ID, which normalizes the differences Vim ignores
// (Shift on characters, Space as a key or a rune, Ctrl+letter case).
//
// Sequences can be written in the notation used by Vim mappings:
//
//	seq, err := key.ParseSequence("3d<C-w><lt>")
//	// '3', 'd', Ctrl+w, '<'
package key
