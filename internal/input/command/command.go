package command

import (
	"fmt"
	"strings"

	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/mode"
)

// Kind categorizes a built-in command.
type Kind uint8

const (
	// KindAction is a self-contained command (x, p, i, u, ...).
	KindAction Kind = iota

	// KindMotion moves the cursor and may serve as an operator argument.
	KindMotion

	// KindOperator needs a motion or text object before it can run.
	KindOperator

	// KindTextObject selects a structured range (iw, a", ip, ...).
	KindTextObject
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindMotion:
		return "motion"
	case KindOperator:
		return "operator"
	case KindTextObject:
		return "textobject"
	default:
		return "unknown"
	}
}

// ArgType is the kind of argument a command expects after its keys.
type ArgType uint8

const (
	ArgNone ArgType = iota

	// ArgCharacter is a single literal character (f, t, r, m, q, @, ").
	// <C-k> and <C-v> may be used to enter it as a digraph or code.
	ArgCharacter

	// ArgDigraph is a character entered as a two-key digraph.
	ArgDigraph

	// ArgMotion is a motion or text object, for operators.
	ArgMotion

	// ArgExString is a line of text ended by <CR> (:, /, ?).
	ArgExString
)

// String returns a human-readable argument type.
func (a ArgType) String() string {
	switch a {
	case ArgNone:
		return "none"
	case ArgCharacter:
		return "character"
	case ArgDigraph:
		return "digraph"
	case ArgMotion:
		return "motion"
	case ArgExString:
		return "ex-string"
	default:
		return "unknown"
	}
}

// Flags is a bit-set of behavioral markers carried by a command.
type Flags uint32

const (
	// FlagSaveJump records the cursor position in the jump list.
	FlagSaveJump Flags = 1 << iota

	// FlagSaveLastChange makes the command the target of ".".
	FlagSaveLastChange

	// FlagLinewise marks a motion that operates on whole lines.
	FlagLinewise

	// FlagInclusive marks a motion that includes its end character.
	FlagInclusive

	// FlagExclusive marks a motion that excludes its end character.
	FlagExclusive

	// FlagTextObject marks a text-object selection.
	FlagTextObject

	// FlagStartInsert marks commands that finish in Insert or Replace mode.
	FlagStartInsert

	// FlagSelfSynchronizing marks commands that drive the dispatcher
	// themselves (macro playback, repeat, Ex playback).
	FlagSelfSynchronizing

	// FlagKeepVisual keeps a Visual selection active after the command.
	FlagKeepVisual

	// FlagLiteralEntry makes a character argument start in literal mode.
	FlagLiteralEntry

	// FlagToggleRecording marks the key that starts and stops recording.
	FlagToggleRecording

	// FlagRepeatable marks motions that ; and , can repeat.
	FlagRepeatable
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagSaveJump, "save-jump"},
	{FlagSaveLastChange, "save-last-change"},
	{FlagLinewise, "linewise"},
	{FlagInclusive, "inclusive"},
	{FlagExclusive, "exclusive"},
	{FlagTextObject, "text-object"},
	{FlagStartInsert, "start-insert"},
	{FlagSelfSynchronizing, "self-synchronizing"},
	{FlagKeepVisual, "keep-visual"},
	{FlagLiteralEntry, "literal-entry"},
	{FlagToggleRecording, "toggle-recording"},
	{FlagRepeatable, "repeatable"},
}

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String lists the set flags, e.g. "linewise|save-jump".
func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalText encodes the flags by name.
func (f Flags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Definition describes one built-in command. Definitions are created
// once at startup and never modified.
type Definition struct {
	// ID is the unique action identifier, e.g. "motion.wordForward".
	ID string

	Kind     Kind
	Argument ArgType
	Flags    Flags

	// Enters is the mode the command leaves the surface in. None means
	// the mode active before the command was typed.
	Enters mode.Mode

	// Prompt is the command-line prompt for ArgExString (':', '/', '?').
	Prompt rune

	Description string
}

// Argument is the tagged union carried by a Command.
type Argument struct {
	Type ArgType `json:"type" yaml:"type"`

	// Char holds the character for ArgCharacter and ArgDigraph.
	Char rune `json:"char,omitempty" yaml:"char,omitempty"`

	// Motion holds the sub-command for ArgMotion.
	Motion *Command `json:"motion,omitempty" yaml:"motion,omitempty"`

	// Text holds the line for ArgExString.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// String formats the argument for logs.
func (a Argument) String() string {
	switch a.Type {
	case ArgCharacter, ArgDigraph:
		return fmt.Sprintf("%s(%q)", a.Type, a.Char)
	case ArgMotion:
		if a.Motion != nil {
			return "motion(" + a.Motion.String() + ")"
		}
		return "motion(nil)"
	case ArgExString:
		return fmt.Sprintf("ex(%q)", a.Text)
	}
	return ""
}

// Command is a fully parsed command, handed to the executor and never
// modified afterwards.
type Command struct {
	// Count is the effective repeat count, at least 1.
	Count int

	// CountGiven is true when the user typed a count.
	CountGiven bool

	// Register is the selected register, or 0 for the default.
	Register rune

	// Operator is set for operator commands ("3dw", Visual "d").
	Operator *Definition

	// Action is the motion, text object or action being run. For an
	// operator command it is the motion or text object argument.
	Action *Definition

	Argument Argument
	Flags    Flags

	// Enters is the mode to switch to after execution, or None.
	Enters mode.Mode

	// Keys are the raw keystrokes that produced the command.
	Keys key.Sequence
}

// ID returns the action identifier, or "" for an empty command.
func (c *Command) ID() string {
	if c == nil || c.Action == nil {
		return ""
	}
	return c.Action.ID
}

// OperatorID returns the operator identifier, or "".
func (c *Command) OperatorID() string {
	if c == nil || c.Operator == nil {
		return ""
	}
	return c.Operator.ID
}

// String formats the command for logs, e.g. "3 operator.delete motion.wordForward".
func (c *Command) String() string {
	if c == nil {
		return "<nil>"
	}
	var b strings.Builder
	if c.Register != 0 {
		fmt.Fprintf(&b, "\"%c ", c.Register)
	}
	if c.CountGiven || c.Count > 1 {
		fmt.Fprintf(&b, "%d ", c.Count)
	}
	if c.Operator != nil {
		b.WriteString(c.Operator.ID)
		b.WriteByte(' ')
	}
	b.WriteString(c.ID())
	if arg := c.Argument.String(); arg != "" && c.Argument.Type != ArgMotion {
		b.WriteByte(' ')
		b.WriteString(arg)
	}
	return b.String()
}

// WithCount returns a copy of c with a new count, used by "." repeat.
func (c *Command) WithCount(count int) *Command {
	clone := *c
	clone.Count = count
	clone.CountGiven = true
	if clone.Argument.Type == ArgMotion && clone.Argument.Motion != nil {
		// The new count replaces both halves of "2d3w".
		sub := *clone.Argument.Motion
		sub.Count = 1
		sub.CountGiven = false
		clone.Argument.Motion = &sub
	}
	return &clone
}
