package mode

import (
	"fmt"
	"strings"
)

// Mode is the editing mode of a surface. The set is closed.
type Mode uint8

const (
	// None is the zero value; it never is the active mode.
	None Mode = iota
	Normal
	Insert
	Replace
	Visual
	VisualLine
	VisualBlock
	Select
	SelectLine
	SelectBlock
	OperatorPending
	CommandLine
)

var modeNames = [...]string{
	None:            "none",
	Normal:          "normal",
	Insert:          "insert",
	Replace:         "replace",
	Visual:          "visual",
	VisualLine:      "visual-line",
	VisualBlock:     "visual-block",
	Select:          "select",
	SelectLine:      "select-line",
	SelectBlock:     "select-block",
	OperatorPending: "operator-pending",
	CommandLine:     "command-line",
}

// String returns the mode identifier, e.g. "visual-line".
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// Parse returns the mode with the given identifier.
func Parse(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == name && Mode(m) != None {
			return Mode(m), nil
		}
	}
	return None, fmt.Errorf("unknown mode: %q", name)
}

// IsVisual returns true for the three Visual kinds.
func (m Mode) IsVisual() bool {
	return m == Visual || m == VisualLine || m == VisualBlock
}

// IsSelect returns true for the three Select kinds.
func (m Mode) IsSelect() bool {
	return m == Select || m == SelectLine || m == SelectBlock
}

// HasSelection returns true when the mode operates on a selection.
func (m Mode) HasSelection() bool {
	return m.IsVisual() || m.IsSelect()
}

// IsTextEntry returns true for modes where unmapped printable keys are text.
func (m Mode) IsTextEntry() bool {
	return m == Insert || m == Replace || m == CommandLine
}

// SelectionKind defines the shape of a selection.
type SelectionKind uint8

const (
	SelectNone SelectionKind = iota
	SelectChar
	SelectLines
	SelectColumns
)

// String returns a human-readable selection kind.
func (s SelectionKind) String() string {
	switch s {
	case SelectChar:
		return "char"
	case SelectLines:
		return "line"
	case SelectColumns:
		return "block"
	default:
		return "none"
	}
}

// SelectionKind returns the selection shape of a Visual or Select mode.
func (m Mode) SelectionKind() SelectionKind {
	switch m {
	case Visual, Select:
		return SelectChar
	case VisualLine, SelectLine:
		return SelectLines
	case VisualBlock, SelectBlock:
		return SelectColumns
	}
	return SelectNone
}

// MapMode identifies one table of key mappings. Several modes share a
// table; Visual kinds all use MapVisual, Replace uses MapInsert.
type MapMode uint8

const (
	MapNormal MapMode = iota
	MapVisual
	MapSelect
	MapOperatorPending
	MapInsert
	MapCommandLine
)

// AllMapModes lists every mapping table.
var AllMapModes = []MapMode{MapNormal, MapVisual, MapSelect, MapOperatorPending, MapInsert, MapCommandLine}

// String returns the Vim letter for the table.
func (mm MapMode) String() string {
	switch mm {
	case MapNormal:
		return "n"
	case MapVisual:
		return "x"
	case MapSelect:
		return "s"
	case MapOperatorPending:
		return "o"
	case MapInsert:
		return "i"
	case MapCommandLine:
		return "c"
	}
	return "?"
}

// MapMode returns the mapping table consulted in mode m.
func (m Mode) MapMode() MapMode {
	switch {
	case m.IsVisual():
		return MapVisual
	case m.IsSelect():
		return MapSelect
	case m == OperatorPending:
		return MapOperatorPending
	case m == Insert || m == Replace:
		return MapInsert
	case m == CommandLine:
		return MapCommandLine
	}
	return MapNormal
}

// ParseMapModes expands a Vim map command prefix into tables:
// "n", "v" (visual+select), "x", "s", "o", "i", "c", "" (:map, n+v+o)
// and "!" (:map!, i+c). Letters may be combined, e.g. "nx".
func ParseMapModes(spec string) ([]MapMode, error) {
	switch spec {
	case "", "nvo":
		return []MapMode{MapNormal, MapVisual, MapSelect, MapOperatorPending}, nil
	case "!", "ic":
		return []MapMode{MapInsert, MapCommandLine}, nil
	}
	seen := make(map[MapMode]bool)
	var out []MapMode
	add := func(mm MapMode) {
		if !seen[mm] {
			seen[mm] = true
			out = append(out, mm)
		}
	}
	for _, c := range spec {
		switch c {
		case 'n':
			add(MapNormal)
		case 'v':
			add(MapVisual)
			add(MapSelect)
		case 'x':
			add(MapVisual)
		case 's':
			add(MapSelect)
		case 'o':
			add(MapOperatorPending)
		case 'i':
			add(MapInsert)
		case 'c':
			add(MapCommandLine)
		case 'l':
			add(MapInsert)
			add(MapCommandLine)
		default:
			return nil, fmt.Errorf("unknown map mode %q in %q", c, spec)
		}
	}
	return out, nil
}

// CursorStyle defines the visual appearance of the cursor.
type CursorStyle uint8

const (
	// CursorBlock is a full-cell block cursor (normal mode).
	CursorBlock CursorStyle = iota

	// CursorBar is a thin vertical bar cursor (insert mode).
	CursorBar

	// CursorUnderline is an underline cursor (replace, operator-pending).
	CursorUnderline
)

// CursorStyle returns the cursor shape hosts conventionally show in m.
func (m Mode) CursorStyle() CursorStyle {
	switch m {
	case Insert, CommandLine:
		return CursorBar
	case Replace, OperatorPending:
		return CursorUnderline
	}
	return CursorBlock
}

// Reporter gives the engine the active mode of a surface and accepts
// mode-change requests. Hosts implement it; Manager is the default.
type Reporter interface {
	Mode() Mode
	RequestMode(m Mode) error
}
