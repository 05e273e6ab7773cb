package keymap

import (
	"strings"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/mode"
)

// MapFlags control how a replacement is replayed.
type MapFlags uint8

const (
	// FlagRecursive lets the replacement keys be remapped (:map vs :noremap).
	FlagRecursive MapFlags = 1 << iota

	// FlagExpression evaluates Expression to obtain the replacement.
	FlagExpression

	// FlagSilent suppresses echo of the replacement.
	FlagSilent

	// FlagNoWait fires the mapping without waiting for longer mappings.
	FlagNoWait
)

// Has reports whether all bits of f2 are set.
func (f MapFlags) Has(f2 MapFlags) bool {
	return f&f2 == f2
}

// String lists the flags in :map argument style.
func (f MapFlags) String() string {
	var parts []string
	if !f.Has(FlagRecursive) {
		parts = append(parts, "noremap")
	}
	if f.Has(FlagExpression) {
		parts = append(parts, "<expr>")
	}
	if f.Has(FlagSilent) {
		parts = append(parts, "<silent>")
	}
	if f.Has(FlagNoWait) {
		parts = append(parts, "<nowait>")
	}
	return strings.Join(parts, " ")
}

// Target is what a key sequence maps to: a built-in command, a
// replacement key sequence or an expression producing one.
type Target struct {
	Command    *command.Definition
	Keys       key.Sequence
	Expression string
}

// ToCommand targets a built-in command.
func ToCommand(def *command.Definition) Target {
	return Target{Command: def}
}

// ToKeys targets a replacement sequence. An empty sequence is <Nop>.
func ToKeys(keys key.Sequence) Target {
	return Target{Keys: keys}
}

// ToExpression targets an expression evaluated by the script engine.
func ToExpression(expr string) Target {
	return Target{Expression: expr}
}

// Entry is one mapping as stored in the trie. Lookups hand out copies;
// entries in the trie are replaced, never modified.
type Entry struct {
	Owner Owner
	Mode  mode.MapMode
	Keys  key.Sequence

	Command     *command.Definition
	Replacement key.Sequence
	Expression  string

	Flags MapFlags

	seq uint64
}

// clone returns a copy that shares no slices with the trie.
func (e *Entry) clone() Entry {
	c := *e
	c.Keys = e.Keys.Clone()
	c.Replacement = e.Replacement.Clone()
	return c
}

// IsMapping returns true for user mappings (replacement or expression).
func (e *Entry) IsMapping() bool {
	return e.Command == nil
}

// IsBuiltin returns true for default bindings.
func (e *Entry) IsBuiltin() bool {
	return e.Owner.Kind == OwnerBuiltin
}

// RHS returns the right-hand side in Vim notation.
func (e *Entry) RHS() string {
	switch {
	case e.Command != nil:
		return e.Command.ID
	case e.Flags.Has(FlagExpression):
		return e.Expression
	case len(e.Replacement) == 0:
		return "<Nop>"
	}
	return e.Replacement.String()
}

// String formats the entry like the output of :map.
func (e *Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Mode.String())
	b.WriteString("  ")
	b.WriteString(e.Keys.String())
	b.WriteString("  ")
	if flags := e.Flags.String(); flags != "" && e.Command == nil {
		b.WriteString(flags)
		b.WriteByte(' ')
	}
	b.WriteString(e.RHS())
	b.WriteString("  (")
	b.WriteString(e.Owner.String())
	b.WriteByte(')')
	return b.String()
}
