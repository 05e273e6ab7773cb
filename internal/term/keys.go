package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/modalkeys/internal/input/key"
)

var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyF1:         key.KeyF1,
	tcell.KeyF2:         key.KeyF2,
	tcell.KeyF3:         key.KeyF3,
	tcell.KeyF4:         key.KeyF4,
	tcell.KeyF5:         key.KeyF5,
	tcell.KeyF6:         key.KeyF6,
	tcell.KeyF7:         key.KeyF7,
	tcell.KeyF8:         key.KeyF8,
	tcell.KeyF9:         key.KeyF9,
	tcell.KeyF10:        key.KeyF10,
	tcell.KeyF11:        key.KeyF11,
	tcell.KeyF12:        key.KeyF12,
}

// ctrlPunct holds the control keys tcell reports for Ctrl plus a
// punctuation character.
var ctrlPunct = map[tcell.Key]rune{
	tcell.KeyCtrlSpace:      ' ',
	tcell.KeyCtrlLeftSq:     '[',
	tcell.KeyCtrlBackslash:  '\\',
	tcell.KeyCtrlRightSq:    ']',
	tcell.KeyCtrlCarat:      '^',
	tcell.KeyCtrlUnderscore: '_',
}

// convertMod converts tcell modifiers to key modifiers.
func convertMod(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}

// Event converts a tcell key event. The second result is false for keys
// the engine has no name for.
func Event(ev *tcell.EventKey) (key.Event, bool) {
	mods := convertMod(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		return key.Event{Key: key.KeyRune, Rune: ev.Rune(), Modifiers: mods, Timestamp: ev.When()}, true
	case k == tcell.KeyBacktab:
		return key.Event{Key: key.KeyTab, Modifiers: mods.With(key.ModShift), Timestamp: ev.When()}, true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		r := 'a' + rune(k-tcell.KeyCtrlA)
		return key.Event{Key: key.KeyRune, Rune: r, Modifiers: mods.With(key.ModCtrl), Timestamp: ev.When()}, true
	}
	if r, ok := ctrlPunct[k]; ok {
		return key.Event{Key: key.KeyRune, Rune: r, Modifiers: mods.With(key.ModCtrl), Timestamp: ev.When()}, true
	}
	if sk, ok := specialKeys[k]; ok {
		return key.Event{Key: sk, Modifiers: mods, Timestamp: ev.When()}, true
	}
	return key.Event{}, false
}
