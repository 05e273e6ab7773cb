// Package keymap implements the mapping trie: a prefix tree per mapping
// table that binds key sequences to built-in commands or to user
// replacement sequences.
//
// Every entry has an Owner (builtin, plugin, global or buffer). Several
// owners may map the same keys; a configurable Policy decides which one
// a lookup returns. Lookup distinguishes a complete match from one that
// still has longer continuations, which is what lets the command
// builder wait after "d" until it knows whether "dd" or "dw" follows.
//
// The trie is shared between editing surfaces. Lookups hold a read
// lock; Map, Unmap, Replace and RemoveOwner hold the write lock.
//
// Mapping files can be written in TOML, YAML or JSON:
//
//	leader = ","
//
//	[[map]]
//	mode = "i"
//	lhs = "jk"
//	rhs = "<Esc>"
//	noremap = true
package keymap
