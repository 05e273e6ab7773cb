package vim

// RegisterType categorizes registers by their behavior.
type RegisterType uint8

const (
	// RegisterInvalid is not a register name.
	RegisterInvalid RegisterType = iota

	// RegisterNamed is a named register (a-z, A-Z). Uppercase appends.
	RegisterNamed

	// RegisterNumbered is a numbered register (1-9).
	RegisterNumbered

	// RegisterLastYank is the yank register (0).
	RegisterLastYank

	// RegisterUnnamed is the default register (").
	RegisterUnnamed

	// RegisterSmallDelete is the small delete register (-).
	RegisterSmallDelete

	// RegisterBlackHole is the black hole register (_).
	RegisterBlackHole

	// RegisterLastInserted is the last inserted text register (.).
	RegisterLastInserted

	// RegisterFileName is the current file name register (%).
	RegisterFileName

	// RegisterAlternate is the alternate file name register (#).
	RegisterAlternate

	// RegisterCommand is the last command register (:).
	RegisterCommand

	// RegisterSearch is the last search pattern register (/).
	RegisterSearch

	// RegisterExpression is the expression register (=).
	RegisterExpression

	// RegisterClipboard is the system clipboard register (+).
	RegisterClipboard

	// RegisterSelection is the primary selection register (*).
	RegisterSelection
)

// String returns a human-readable register type.
func (t RegisterType) String() string {
	switch t {
	case RegisterNamed:
		return "named"
	case RegisterNumbered:
		return "numbered"
	case RegisterLastYank:
		return "lastYank"
	case RegisterUnnamed:
		return "unnamed"
	case RegisterSmallDelete:
		return "smallDelete"
	case RegisterBlackHole:
		return "blackHole"
	case RegisterLastInserted:
		return "lastInserted"
	case RegisterFileName:
		return "fileName"
	case RegisterAlternate:
		return "alternate"
	case RegisterCommand:
		return "command"
	case RegisterSearch:
		return "search"
	case RegisterExpression:
		return "expression"
	case RegisterClipboard:
		return "clipboard"
	case RegisterSelection:
		return "selection"
	default:
		return "invalid"
	}
}

// GetRegisterType returns the type of a register by name.
func GetRegisterType(name rune) RegisterType {
	switch {
	case name >= 'a' && name <= 'z', name >= 'A' && name <= 'Z':
		return RegisterNamed
	case name == '0':
		return RegisterLastYank
	case name >= '1' && name <= '9':
		return RegisterNumbered
	}
	switch name {
	case '"':
		return RegisterUnnamed
	case '-':
		return RegisterSmallDelete
	case '_':
		return RegisterBlackHole
	case '.':
		return RegisterLastInserted
	case '%':
		return RegisterFileName
	case '#':
		return RegisterAlternate
	case ':':
		return RegisterCommand
	case '/':
		return RegisterSearch
	case '=':
		return RegisterExpression
	case '+':
		return RegisterClipboard
	case '*':
		return RegisterSelection
	}
	return RegisterInvalid
}

// IsValidRegister returns true if the name can follow a `"` prefix.
func IsValidRegister(name rune) bool {
	return GetRegisterType(name) != RegisterInvalid
}

// IsReadOnly returns true for registers the user cannot write to.
func IsReadOnly(name rune) bool {
	switch GetRegisterType(name) {
	case RegisterLastInserted, RegisterFileName, RegisterAlternate, RegisterCommand:
		return true
	}
	return false
}
