// Package command holds the data model of a parsed Vim command and the
// table of built-in command definitions.
//
// A Definition describes what a key binding does: its kind (motion,
// operator, text object or action), the argument it expects and its
// behavioral flags. A Command is one fully parsed invocation:
//
//	"a3dfx  ->  Command{Register: 'a', Count: 3,
//	                   Operator: operator.delete,
//	                   Action: motion.findChar,
//	                   Argument: Motion(Command{Action: motion.findChar, Argument: Character('x')})}
//
// Definitions are registered once in a Registry and resolved by ID; the
// key bindings that reach them live in the keymap package.
package command
