package command

import "github.com/dshills/modalkeys/internal/input/mode"

// Identifiers the engine itself produces or interprets.
const (
	IDInsertChar    = "insert.char"
	IDReplaceChar   = "replace.char"
	IDSelectReplace = "select.replace"
	IDLine          = "motion.line"
	IDSelection     = "motion.selection"
	IDEscape        = "mode.escape"
	IDRecord        = "macro.record"
	IDStopRecord    = "macro.stop"
	IDPlay          = "macro.play"
	IDRepeat        = "repeat.lastChange"
	IDExCommand     = "ex.command"

	IDCmdlineExecute    = "cmdline.execute"
	IDCmdlineBackspace  = "cmdline.backspace"
	IDCmdlineClear      = "cmdline.clear"
	IDCmdlineDeleteWord = "cmdline.deleteWord"
	IDCmdlineLiteral    = "cmdline.literal"
	IDCmdlineDigraph    = "cmdline.digraph"
)

const (
	change   = FlagSaveLastChange
	jump     = FlagSaveJump
	excl     = FlagExclusive
	incl     = FlagInclusive
	linewise = FlagLinewise
	insert   = FlagStartInsert | FlagSaveLastChange
)

func motion(id string, flags Flags, desc string) Definition {
	return Definition{ID: id, Kind: KindMotion, Flags: flags, Description: desc}
}

func charMotion(id string, flags Flags, desc string) Definition {
	return Definition{ID: id, Kind: KindMotion, Argument: ArgCharacter, Flags: flags, Description: desc}
}

func operator(id string, flags Flags, enters mode.Mode, desc string) Definition {
	return Definition{ID: id, Kind: KindOperator, Argument: ArgMotion, Flags: flags, Enters: enters, Description: desc}
}

func textObject(id, desc string) Definition {
	return Definition{ID: id, Kind: KindTextObject, Flags: FlagTextObject | incl, Description: desc}
}

func action(id string, flags Flags, enters mode.Mode, desc string) Definition {
	return Definition{ID: id, Kind: KindAction, Flags: flags, Enters: enters, Description: desc}
}

func argAction(id string, arg ArgType, flags Flags, enters mode.Mode, desc string) Definition {
	return Definition{ID: id, Kind: KindAction, Argument: arg, Flags: flags, Enters: enters, Description: desc}
}

var builtinDefinitions = []Definition{
	// Left-right and up-down motions
	motion("motion.left", excl, "Move left"),
	motion("motion.right", excl, "Move right"),
	motion("motion.up", linewise, "Move up"),
	motion("motion.down", linewise, "Move down"),
	motion("motion.lineStart", excl, "Move to start of line"),
	motion("motion.firstNonBlank", excl, "Move to first non-blank"),
	motion("motion.lineEnd", incl, "Move to end of line"),
	motion("motion.column", excl, "Move to column"),
	motion("motion.nextLineStart", linewise, "Move to first non-blank of next line"),
	motion("motion.prevLineStart", linewise, "Move to first non-blank of previous line"),
	motion("motion.displayDown", excl, "Move down a display line"),
	motion("motion.displayUp", excl, "Move up a display line"),
	motion("motion.displayLineStart", excl, "Move to start of display line"),
	motion("motion.displayLineEnd", incl, "Move to end of display line"),
	motion("motion.firstLine", linewise|jump, "Go to first line"),
	motion("motion.lastLine", linewise|jump, "Go to last line"),
	motion(IDLine, linewise, "Current line"),
	motion(IDSelection, 0, "Visual selection"),

	// Word motions
	motion("motion.wordForward", excl, "Next word"),
	motion("motion.wordBackward", excl, "Previous word"),
	motion("motion.wordEnd", incl, "End of word"),
	motion("motion.wordEndBackward", incl, "End of previous word"),
	motion("motion.WORDForward", excl, "Next WORD"),
	motion("motion.WORDBackward", excl, "Previous WORD"),
	motion("motion.WORDEnd", incl, "End of WORD"),
	motion("motion.WORDEndBackward", incl, "End of previous WORD"),

	// Text structure motions
	motion("motion.sentenceForward", excl|jump, "Next sentence"),
	motion("motion.sentenceBackward", excl|jump, "Previous sentence"),
	motion("motion.paragraphForward", excl|jump, "Next paragraph"),
	motion("motion.paragraphBackward", excl|jump, "Previous paragraph"),
	motion("motion.matchPair", incl|jump, "Matching bracket"),
	motion("motion.screenTop", linewise|jump, "Top of screen"),
	motion("motion.screenMiddle", linewise|jump, "Middle of screen"),
	motion("motion.screenBottom", linewise|jump, "Bottom of screen"),

	// Character find motions
	charMotion("motion.findChar", incl|FlagRepeatable, "Find character forward"),
	charMotion("motion.findCharBackward", excl|FlagRepeatable, "Find character backward"),
	charMotion("motion.tillChar", incl|FlagRepeatable, "Till character forward"),
	charMotion("motion.tillCharBackward", excl|FlagRepeatable, "Till character backward"),
	motion("motion.repeatFind", incl, "Repeat last find"),
	motion("motion.repeatFindReverse", excl, "Repeat last find reversed"),

	// Search and mark motions
	{ID: "motion.searchForward", Kind: KindMotion, Argument: ArgExString, Prompt: '/', Flags: excl | jump, Description: "Search forward"},
	{ID: "motion.searchBackward", Kind: KindMotion, Argument: ArgExString, Prompt: '?', Flags: excl | jump, Description: "Search backward"},
	motion("motion.searchNext", excl|jump, "Next match"),
	motion("motion.searchPrev", excl|jump, "Previous match"),
	motion("motion.searchWordForward", excl|jump, "Search word under cursor forward"),
	motion("motion.searchWordBackward", excl|jump, "Search word under cursor backward"),
	charMotion("motion.mark", excl|jump, "Go to mark"),
	charMotion("motion.markLine", linewise|jump, "Go to line of mark"),

	// Operators
	operator("operator.delete", change, mode.None, "Delete"),
	operator("operator.change", insert, mode.Insert, "Change"),
	operator("operator.yank", 0, mode.None, "Yank"),
	operator("operator.indentRight", change, mode.None, "Shift right"),
	operator("operator.indentLeft", change, mode.None, "Shift left"),
	operator("operator.format", change, mode.None, "Reindent"),
	operator("operator.formatText", change, mode.None, "Format text"),
	operator("operator.toggleCase", change, mode.None, "Toggle case"),
	operator("operator.toLower", change, mode.None, "Make lowercase"),
	operator("operator.toUpper", change, mode.None, "Make uppercase"),
	operator("operator.rot13", change, mode.None, "Rot13 encode"),
	operator("operator.filter", change, mode.None, "Filter through command"),

	// Text objects
	textObject("textobject.innerWord", "Inner word"),
	textObject("textobject.aroundWord", "A word"),
	textObject("textobject.innerWORD", "Inner WORD"),
	textObject("textobject.aroundWORD", "A WORD"),
	textObject("textobject.innerSentence", "Inner sentence"),
	textObject("textobject.aroundSentence", "A sentence"),
	textObject("textobject.innerParagraph", "Inner paragraph"),
	textObject("textobject.aroundParagraph", "A paragraph"),
	textObject("textobject.innerParen", "Inner () block"),
	textObject("textobject.aroundParen", "A () block"),
	textObject("textobject.innerBrace", "Inner {} block"),
	textObject("textobject.aroundBrace", "A {} block"),
	textObject("textobject.innerBracket", "Inner [] block"),
	textObject("textobject.aroundBracket", "A [] block"),
	textObject("textobject.innerAngle", "Inner <> block"),
	textObject("textobject.aroundAngle", "A <> block"),
	textObject("textobject.innerTag", "Inner tag block"),
	textObject("textobject.aroundTag", "A tag block"),
	textObject("textobject.innerDoubleQuote", "Inner double-quoted string"),
	textObject("textobject.aroundDoubleQuote", "A double-quoted string"),
	textObject("textobject.innerSingleQuote", "Inner single-quoted string"),
	textObject("textobject.aroundSingleQuote", "A single-quoted string"),
	textObject("textobject.innerBackQuote", "Inner backtick string"),
	textObject("textobject.aroundBackQuote", "A backtick string"),

	// Simple changes
	action("edit.deleteChar", change, mode.None, "Delete character under cursor"),
	action("edit.deleteCharBefore", change, mode.None, "Delete character before cursor"),
	action("edit.substituteChar", insert, mode.Insert, "Substitute character"),
	action("edit.substituteLine", insert|linewise, mode.Insert, "Substitute line"),
	argAction("edit.replaceChar", ArgCharacter, change, mode.None, "Replace character"),
	action("edit.deleteToEnd", change, mode.None, "Delete to end of line"),
	action("edit.changeToEnd", insert, mode.Insert, "Change to end of line"),
	action("edit.yankToEnd", linewise, mode.None, "Yank line"),
	action("edit.putAfter", change, mode.None, "Put after cursor"),
	action("edit.putBefore", change, mode.None, "Put before cursor"),
	action("edit.joinLines", change, mode.None, "Join lines"),
	action("edit.joinLinesNoSpace", change, mode.None, "Join lines without spaces"),
	action("edit.toggleCaseChar", change, mode.None, "Toggle case of character"),
	action("edit.increment", change, mode.None, "Increment number"),
	action("edit.decrement", change, mode.None, "Decrement number"),
	action("edit.undo", 0, mode.None, "Undo"),
	action("edit.redo", 0, mode.None, "Redo"),

	// Doubled operators
	action("edit.deleteLine", change|linewise, mode.None, "Delete line"),
	action("edit.yankLines", linewise, mode.None, "Yank line"),
	action("edit.changeLine", insert|linewise, mode.Insert, "Change line"),
	action("edit.indentLine", change|linewise, mode.None, "Shift line right"),
	action("edit.unindentLine", change|linewise, mode.None, "Shift line left"),
	action("edit.formatLine", change|linewise, mode.None, "Reindent line"),
	action("edit.toggleCaseLine", change|linewise, mode.None, "Toggle case of line"),
	action("edit.lowerLine", change|linewise, mode.None, "Lowercase line"),
	action("edit.upperLine", change|linewise, mode.None, "Uppercase line"),

	// Mode changes
	action("mode.insert", insert, mode.Insert, "Insert before cursor"),
	action("mode.insertLineStart", insert, mode.Insert, "Insert at first non-blank"),
	action("mode.append", insert, mode.Insert, "Append after cursor"),
	action("mode.appendLineEnd", insert, mode.Insert, "Append at end of line"),
	action("mode.openBelow", insert, mode.Insert, "Open line below"),
	action("mode.openAbove", insert, mode.Insert, "Open line above"),
	action("mode.replace", insert, mode.Replace, "Enter Replace mode"),
	action("mode.visual", FlagKeepVisual, mode.Visual, "Characterwise Visual mode"),
	action("mode.visualLine", FlagKeepVisual, mode.VisualLine, "Linewise Visual mode"),
	action("mode.visualBlock", FlagKeepVisual, mode.VisualBlock, "Blockwise Visual mode"),
	action("mode.visualReselect", FlagKeepVisual, mode.Visual, "Reselect last Visual area"),
	action("mode.exitVisual", 0, mode.Normal, "Leave Visual mode"),
	action("mode.select", 0, mode.Select, "Characterwise Select mode"),
	action("mode.selectLine", 0, mode.SelectLine, "Linewise Select mode"),
	action("mode.selectBlock", 0, mode.SelectBlock, "Blockwise Select mode"),
	action("mode.selectToVisual", FlagKeepVisual, mode.Visual, "Switch Select to Visual"),
	action(IDEscape, 0, mode.Normal, "Leave the current mode"),

	// Visual-only actions
	action("visual.swapEnds", FlagKeepVisual, mode.None, "Go to other end of selection"),
	action("visual.blockInsert", insert, mode.Insert, "Insert before block"),
	action("visual.blockAppend", insert, mode.Insert, "Append after block"),

	// Select-only actions
	action("select.delete", insert, mode.Insert, "Delete selection"),
	argAction(IDSelectReplace, ArgCharacter, insert, mode.Insert, "Replace selection with character"),

	// Command line, macros and repeat
	{ID: IDExCommand, Kind: KindAction, Argument: ArgExString, Prompt: ':', Flags: FlagSelfSynchronizing, Description: "Execute Ex command"},
	argAction(IDRecord, ArgCharacter, FlagToggleRecording, mode.None, "Record into register"),
	action(IDStopRecord, FlagToggleRecording, mode.None, "Stop recording"),
	argAction(IDPlay, ArgCharacter, FlagSelfSynchronizing, mode.None, "Execute register"),
	action(IDRepeat, FlagSelfSynchronizing, mode.None, "Repeat last change"),
	argAction("mark.set", ArgCharacter, 0, mode.None, "Set mark"),
	argAction("window.command", ArgCharacter, 0, mode.None, "Window command"),

	// Scrolling and files
	action("scroll.halfPageDown", FlagKeepVisual, mode.None, "Scroll half page down"),
	action("scroll.halfPageUp", FlagKeepVisual, mode.None, "Scroll half page up"),
	action("scroll.pageDown", FlagKeepVisual, mode.None, "Scroll page down"),
	action("scroll.pageUp", FlagKeepVisual, mode.None, "Scroll page up"),
	action("file.writeQuit", 0, mode.None, "Write and quit"),
	action("file.quit", 0, mode.None, "Quit without writing"),

	// Insert mode
	argAction(IDInsertChar, ArgCharacter, change, mode.None, "Insert character"),
	argAction(IDReplaceChar, ArgCharacter, change, mode.None, "Overwrite character"),
	action("insert.newline", change, mode.None, "Insert line break"),
	action("insert.tab", change, mode.None, "Insert tab"),
	action("insert.backspace", change, mode.None, "Delete character before cursor"),
	action("insert.delete", change, mode.None, "Delete character under cursor"),
	action("insert.deleteWordBefore", change, mode.None, "Delete word before cursor"),
	action("insert.deleteLineBefore", change, mode.None, "Delete to start of line"),
	action("insert.indent", change, mode.None, "Indent line"),
	action("insert.unindent", change, mode.None, "Unindent line"),
	action("insert.completeNext", 0, mode.None, "Complete next match"),
	action("insert.completePrev", 0, mode.None, "Complete previous match"),
	argAction("insert.digraph", ArgDigraph, change, mode.None, "Insert digraph"),
	argAction("insert.literal", ArgCharacter, change|FlagLiteralEntry, mode.None, "Insert literal character"),
	argAction("insert.register", ArgCharacter, change, mode.None, "Insert register contents"),

	// Command-line editing
	action(IDCmdlineExecute, 0, mode.None, "Execute command line"),
	action(IDCmdlineBackspace, 0, mode.None, "Delete character before cursor"),
	action(IDCmdlineClear, 0, mode.None, "Clear command line"),
	action(IDCmdlineDeleteWord, 0, mode.None, "Delete word before cursor"),
	argAction(IDCmdlineLiteral, ArgCharacter, FlagLiteralEntry, mode.None, "Insert literal character"),
	argAction(IDCmdlineDigraph, ArgDigraph, 0, mode.None, "Insert digraph"),
}
