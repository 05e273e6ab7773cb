package vim

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/modalkeys/internal/input/key"
)

// ShowCmdWidth is the number of cells Vim reserves for 'showcmd'.
const ShowCmdWidth = 10

// Pending returns the keys of the incomplete command as Vim's 'showcmd'
// displays them: control keys as ^X, the most recent keys kept when the
// text is wider than ShowCmdWidth.
func (b *Builder) Pending() string {
	var sb strings.Builder
	for _, ev := range b.raw {
		sb.WriteString(showKey(ev))
	}
	sb.WriteString(b.collectorPending())
	return truncateLeft(sb.String(), ShowCmdWidth)
}

func (b *Builder) collectorPending() string {
	switch {
	case b.motion != nil:
		return b.motion.collectorPending()
	case b.cmdline != nil:
		return b.cmdline.collectorPending()
	}
	return b.collector.Pending()
}

func showKey(ev key.Event) string {
	id := ev.ID()
	if id.Key == key.KeyRune {
		switch {
		case id.Mods == key.ModNone && unicode.IsPrint(id.Rune):
			return string(id.Rune)
		case id.Mods == key.ModCtrl && id.Rune >= 'a' && id.Rune <= 'z':
			return "^" + string(unicode.ToUpper(id.Rune))
		case id.Mods == key.ModCtrl && id.Rune >= '@' && id.Rune <= '_':
			return "^" + string(id.Rune)
		}
	}
	return ev.VimString()
}

// truncateLeft keeps the rightmost runes of s that fit in width cells.
func truncateLeft(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	rs := []rune(s)
	used, i := 0, len(rs)
	for i > 0 {
		w := runewidth.RuneWidth(rs[i-1])
		if used+w > width {
			break
		}
		used += w
		i--
	}
	return string(rs[i:])
}
