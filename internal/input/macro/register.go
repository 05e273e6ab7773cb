package macro

import "unicode"

// Register validation constants.
const (
	// MinLetterRegister is the first valid letter register.
	MinLetterRegister = 'a'
	// MaxLetterRegister is the last valid letter register.
	MaxLetterRegister = 'z'
	// MinDigitRegister is the first valid digit register.
	MinDigitRegister = '0'
	// MaxDigitRegister is the last valid digit register.
	MaxDigitRegister = '9'

	// LastPlayedRegister names the register played most recently ("@@").
	LastPlayedRegister = '@'

	// CommandRegister holds the last command line ("@:").
	CommandRegister = ':'
)

// IsValidRegister returns true if r is a valid register name.
// Valid registers are lowercase letters (a-z) and digits (0-9).
func IsValidRegister(r rune) bool {
	return IsLetterRegister(r) || IsDigitRegister(r)
}

// IsLetterRegister returns true if r is a letter register (a-z).
func IsLetterRegister(r rune) bool {
	return r >= MinLetterRegister && r <= MaxLetterRegister
}

// IsDigitRegister returns true if r is a digit register (0-9).
func IsDigitRegister(r rune) bool {
	return r >= MinDigitRegister && r <= MaxDigitRegister
}

// NormalizeRegister converts a register to its canonical form.
// Uppercase letters are converted to lowercase.
// Invalid registers return 0.
func NormalizeRegister(r rune) rune {
	if IsAppendRegister(r) {
		return unicode.ToLower(r)
	}
	if IsValidRegister(r) {
		return r
	}
	return 0
}

// IsAppendRegister returns true if r is an uppercase letter (A-Z).
// In Vim, uppercase letters append to the corresponding lowercase register.
func IsAppendRegister(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// AllRegisters returns all valid registers (a-z, 0-9).
func AllRegisters() []rune {
	result := make([]rune, 0, 36)
	for r := MinLetterRegister; r <= MaxLetterRegister; r++ {
		result = append(result, r)
	}
	for r := MinDigitRegister; r <= MaxDigitRegister; r++ {
		result = append(result, r)
	}
	return result
}

// RegisterInfo provides metadata about a register.
type RegisterInfo struct {
	// Name is the register name (a-z or 0-9).
	Name rune

	// EventCount is the number of events in the register.
	EventCount int

	// Keys is the content in Vim notation.
	Keys string
}

// ListRegisterInfo describes every non-empty register, in register order.
func ListRegisterInfo(recorder *Recorder) []RegisterInfo {
	regs := recorder.ListRegisters()
	result := make([]RegisterInfo, 0, len(regs))
	for _, r := range regs {
		events := recorder.Get(r)
		result = append(result, RegisterInfo{Name: r, EventCount: len(events), Keys: events.String()})
	}
	return result
}
