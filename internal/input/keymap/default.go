package keymap

import (
	"fmt"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/mode"
)

// binding is one default key binding: map-mode letters, keys in Vim
// notation and the command it runs.
type binding struct {
	Modes string
	Keys  string
	ID    string
}

// Motions are bound in Normal, Visual and Operator-pending tables.
const nxo = "nxo"

var defaultBindings = []binding{
	// Movement - basic
	{nxo, "h", "motion.left"},
	{nxo, "<Left>", "motion.left"},
	{nxo, "<BS>", "motion.left"},
	{nxo, "l", "motion.right"},
	{nxo, "<Right>", "motion.right"},
	{nxo, "<Space>", "motion.right"},
	{nxo, "k", "motion.up"},
	{nxo, "<Up>", "motion.up"},
	{nxo, "j", "motion.down"},
	{nxo, "<Down>", "motion.down"},
	{nxo, "gj", "motion.displayDown"},
	{nxo, "gk", "motion.displayUp"},

	// Movement - line
	{nxo, "0", "motion.lineStart"},
	{nxo, "<Home>", "motion.lineStart"},
	{nxo, "^", "motion.firstNonBlank"},
	{nxo, "$", "motion.lineEnd"},
	{nxo, "<End>", "motion.lineEnd"},
	{nxo, "|", "motion.column"},
	{nxo, "g0", "motion.displayLineStart"},
	{nxo, "g$", "motion.displayLineEnd"},
	{nxo, "+", "motion.nextLineStart"},
	{nxo, "<CR>", "motion.nextLineStart"},
	{nxo, "-", "motion.prevLineStart"},
	{nxo, "gg", "motion.firstLine"},
	{nxo, "G", "motion.lastLine"},

	// Movement - words
	{nxo, "w", "motion.wordForward"},
	{nxo, "b", "motion.wordBackward"},
	{nxo, "e", "motion.wordEnd"},
	{nxo, "ge", "motion.wordEndBackward"},
	{nxo, "W", "motion.WORDForward"},
	{nxo, "B", "motion.WORDBackward"},
	{nxo, "E", "motion.WORDEnd"},
	{nxo, "gE", "motion.WORDEndBackward"},

	// Movement - structure
	{nxo, ")", "motion.sentenceForward"},
	{nxo, "(", "motion.sentenceBackward"},
	{nxo, "}", "motion.paragraphForward"},
	{nxo, "{", "motion.paragraphBackward"},
	{nxo, "%", "motion.matchPair"},
	{nxo, "H", "motion.screenTop"},
	{nxo, "M", "motion.screenMiddle"},
	{nxo, "L", "motion.screenBottom"},

	// Movement - find and search
	{nxo, "f", "motion.findChar"},
	{nxo, "F", "motion.findCharBackward"},
	{nxo, "t", "motion.tillChar"},
	{nxo, "T", "motion.tillCharBackward"},
	{nxo, ";", "motion.repeatFind"},
	{nxo, ",", "motion.repeatFindReverse"},
	{nxo, "/", "motion.searchForward"},
	{nxo, "?", "motion.searchBackward"},
	{nxo, "n", "motion.searchNext"},
	{nxo, "N", "motion.searchPrev"},
	{nxo, "*", "motion.searchWordForward"},
	{nxo, "#", "motion.searchWordBackward"},
	{nxo, "`", "motion.mark"},
	{nxo, "'", "motion.markLine"},

	// Operators
	{"nx", "d", "operator.delete"},
	{"nx", "c", "operator.change"},
	{"nx", "y", "operator.yank"},
	{"nx", ">", "operator.indentRight"},
	{"nx", "<lt>", "operator.indentLeft"},
	{"nx", "=", "operator.format"},
	{"nx", "gq", "operator.formatText"},
	{"nx", "g~", "operator.toggleCase"},
	{"nx", "gu", "operator.toLower"},
	{"nx", "gU", "operator.toUpper"},
	{"nx", "g?", "operator.rot13"},
	{"nx", "!", "operator.filter"},
	{"x", "x", "operator.delete"},
	{"x", "<Del>", "operator.delete"},
	{"x", "s", "operator.change"},
	{"x", "u", "operator.toLower"},
	{"x", "U", "operator.toUpper"},
	{"x", "~", "operator.toggleCase"},

	// Doubled operators act on lines
	{"n", "dd", "edit.deleteLine"},
	{"n", "yy", "edit.yankLines"},
	{"n", "cc", "edit.changeLine"},
	{"n", ">>", "edit.indentLine"},
	{"n", "<lt><lt>", "edit.unindentLine"},
	{"n", "==", "edit.formatLine"},
	{"n", "g~~", "edit.toggleCaseLine"},
	{"n", "guu", "edit.lowerLine"},
	{"n", "gUU", "edit.upperLine"},

	// Text objects
	{"xo", "iw", "textobject.innerWord"},
	{"xo", "aw", "textobject.aroundWord"},
	{"xo", "iW", "textobject.innerWORD"},
	{"xo", "aW", "textobject.aroundWORD"},
	{"xo", "is", "textobject.innerSentence"},
	{"xo", "as", "textobject.aroundSentence"},
	{"xo", "ip", "textobject.innerParagraph"},
	{"xo", "ap", "textobject.aroundParagraph"},
	{"xo", "i(", "textobject.innerParen"},
	{"xo", "i)", "textobject.innerParen"},
	{"xo", "ib", "textobject.innerParen"},
	{"xo", "a(", "textobject.aroundParen"},
	{"xo", "a)", "textobject.aroundParen"},
	{"xo", "ab", "textobject.aroundParen"},
	{"xo", "i{", "textobject.innerBrace"},
	{"xo", "i}", "textobject.innerBrace"},
	{"xo", "iB", "textobject.innerBrace"},
	{"xo", "a{", "textobject.aroundBrace"},
	{"xo", "a}", "textobject.aroundBrace"},
	{"xo", "aB", "textobject.aroundBrace"},
	{"xo", "i[", "textobject.innerBracket"},
	{"xo", "i]", "textobject.innerBracket"},
	{"xo", "a[", "textobject.aroundBracket"},
	{"xo", "a]", "textobject.aroundBracket"},
	{"xo", "i<lt>", "textobject.innerAngle"},
	{"xo", "i>", "textobject.innerAngle"},
	{"xo", "a<lt>", "textobject.aroundAngle"},
	{"xo", "a>", "textobject.aroundAngle"},
	{"xo", "it", "textobject.innerTag"},
	{"xo", "at", "textobject.aroundTag"},
	{"xo", `i"`, "textobject.innerDoubleQuote"},
	{"xo", `a"`, "textobject.aroundDoubleQuote"},
	{"xo", "i'", "textobject.innerSingleQuote"},
	{"xo", "a'", "textobject.aroundSingleQuote"},
	{"xo", "i`", "textobject.innerBackQuote"},
	{"xo", "a`", "textobject.aroundBackQuote"},

	// Simple changes
	{"n", "x", "edit.deleteChar"},
	{"n", "<Del>", "edit.deleteChar"},
	{"n", "X", "edit.deleteCharBefore"},
	{"n", "s", "edit.substituteChar"},
	{"n", "S", "edit.substituteLine"},
	{"nx", "r", "edit.replaceChar"},
	{"n", "D", "edit.deleteToEnd"},
	{"n", "C", "edit.changeToEnd"},
	{"n", "Y", "edit.yankToEnd"},
	{"nx", "p", "edit.putAfter"},
	{"nx", "P", "edit.putBefore"},
	{"nx", "J", "edit.joinLines"},
	{"nx", "gJ", "edit.joinLinesNoSpace"},
	{"n", "~", "edit.toggleCaseChar"},
	{"n", "<C-a>", "edit.increment"},
	{"n", "<C-x>", "edit.decrement"},
	{"n", "u", "edit.undo"},
	{"n", "<C-r>", "edit.redo"},

	// Mode changes
	{"n", "i", "mode.insert"},
	{"n", "<Insert>", "mode.insert"},
	{"n", "I", "mode.insertLineStart"},
	{"n", "a", "mode.append"},
	{"n", "A", "mode.appendLineEnd"},
	{"n", "o", "mode.openBelow"},
	{"n", "O", "mode.openAbove"},
	{"n", "R", "mode.replace"},
	{"n", "v", "mode.visual"},
	{"n", "V", "mode.visualLine"},
	{"n", "<C-v>", "mode.visualBlock"},
	{"n", "<C-q>", "mode.visualBlock"},
	{"n", "gv", "mode.visualReselect"},
	{"n", "gh", "mode.select"},
	{"n", "gH", "mode.selectLine"},
	{"n", "g<C-h>", "mode.selectBlock"},

	// Visual mode
	{"x", "v", "mode.visual"},
	{"x", "V", "mode.visualLine"},
	{"x", "<C-v>", "mode.visualBlock"},
	{"x", "o", "visual.swapEnds"},
	{"x", "O", "visual.swapEnds"},
	{"x", "I", "visual.blockInsert"},
	{"x", "A", "visual.blockAppend"},
	{"x", "<C-g>", "mode.select"},

	// Select mode
	{"s", "<C-g>", "mode.selectToVisual"},
	{"s", "<BS>", "select.delete"},
	{"s", "<Del>", "select.delete"},
	{"s", "<Left>", "motion.left"},
	{"s", "<Right>", "motion.right"},
	{"s", "<Up>", "motion.up"},
	{"s", "<Down>", "motion.down"},

	// Command line, macros and repeat
	{"nx", ":", command.IDExCommand},
	{"n", "q", command.IDRecord},
	{"nx", "@", command.IDPlay},
	{"n", ".", command.IDRepeat},
	{"n", "m", "mark.set"},
	{"n", "<C-w>", "window.command"},
	{"n", "ZZ", "file.writeQuit"},
	{"n", "ZQ", "file.quit"},
	{"nx", "<C-d>", "scroll.halfPageDown"},
	{"nx", "<C-u>", "scroll.halfPageUp"},
	{"nx", "<C-f>", "scroll.pageDown"},
	{"nx", "<C-b>", "scroll.pageUp"},

	// Insert mode
	{"i", "<CR>", "insert.newline"},
	{"i", "<Tab>", "insert.tab"},
	{"i", "<BS>", "insert.backspace"},
	{"i", "<Del>", "insert.delete"},
	{"i", "<C-w>", "insert.deleteWordBefore"},
	{"i", "<C-u>", "insert.deleteLineBefore"},
	{"i", "<C-t>", "insert.indent"},
	{"i", "<C-d>", "insert.unindent"},
	{"i", "<C-n>", "insert.completeNext"},
	{"i", "<C-p>", "insert.completePrev"},
	{"i", "<C-k>", "insert.digraph"},
	{"i", "<C-v>", "insert.literal"},
	{"i", "<C-q>", "insert.literal"},
	{"i", "<C-r>", "insert.register"},
	{"i", "<Left>", "motion.left"},
	{"i", "<Right>", "motion.right"},
	{"i", "<Up>", "motion.up"},
	{"i", "<Down>", "motion.down"},
	{"i", "<Home>", "motion.lineStart"},
	{"i", "<End>", "motion.lineEnd"},

	// Command-line editing
	{"c", "<CR>", command.IDCmdlineExecute},
	{"c", "<BS>", command.IDCmdlineBackspace},
	{"c", "<C-u>", command.IDCmdlineClear},
	{"c", "<C-w>", command.IDCmdlineDeleteWord},
	{"c", "<C-v>", command.IDCmdlineLiteral},
	{"c", "<C-q>", command.IDCmdlineLiteral},
	{"c", "<C-k>", command.IDCmdlineDigraph},
}

// LoadDefaults installs the built-in bindings, owned by Builtin(), for
// every command in the registry they reference.
func LoadDefaults(r *Registry, commands *command.Registry) error {
	for _, b := range defaultBindings {
		def, ok := commands.Lookup(b.ID)
		if !ok {
			return fmt.Errorf("default binding %q: unknown command %s", b.Keys, b.ID)
		}
		modes, err := mode.ParseMapModes(b.Modes)
		if err != nil {
			return fmt.Errorf("default binding %q: %w", b.Keys, err)
		}
		seq, err := key.ParseSequence(b.Keys)
		if err != nil {
			return fmt.Errorf("default binding %q: %w", b.Keys, err)
		}
		if err := r.Map(Builtin(), modes, seq, ToCommand(def), 0); err != nil {
			return fmt.Errorf("default binding %q: %w", b.Keys, err)
		}
	}
	return nil
}
