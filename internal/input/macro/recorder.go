package macro

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/modalkeys/internal/input/key"
)

// Errors returned by the recorder and player.
var (
	ErrInvalidRegister    = errors.New("invalid register")
	ErrAlreadyRecording   = errors.New("already recording")
	ErrNotRecording       = errors.New("not recording")
	ErrRecursiveRecording = errors.New("cannot record into a register that is being played")
	ErrEmptyRegister      = errors.New("register is empty")
	ErrNoLastPlayed       = errors.New("no macro has been played")
	ErrPlaybackDepth      = errors.New("macro nesting too deep")
	ErrKeyBudget          = errors.New("macro key budget exhausted")
)

// Recorder records key sequences for macro playback. Its registers are
// shared by every editing surface of a process. It is safe for
// concurrent use.
type Recorder struct {
	mu         sync.Mutex
	recording  bool
	appending  bool
	register   rune
	events     key.Sequence
	registers  map[rune]key.Sequence
	lastPlayed rune
	lastLine   string

	// playing counts the playback frames of each register.
	playing map[rune]int
}

// NewRecorder creates a new macro recorder with empty registers.
func NewRecorder() *Recorder {
	return &Recorder{
		registers: make(map[rune]key.Sequence),
		playing:   make(map[rune]int),
	}
}

// StartRecording begins recording to the specified register. An
// uppercase name appends to the lowercase register when recording stops.
// Recording into a register that is currently being played fails with
// ErrRecursiveRecording and leaves playback untouched.
func (r *Recorder) StartRecording(register rune) error {
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w to register %c", ErrAlreadyRecording, r.register)
	}
	if r.playing[name] > 0 {
		return fmt.Errorf("%w: %c", ErrRecursiveRecording, name)
	}

	r.recording = true
	r.appending = IsAppendRegister(register)
	r.register = name
	r.events = nil
	return nil
}

// StopRecording ends the current recording and saves it to the register.
// The last trim events are dropped first; they are the keys that stopped
// the recording. Returns the saved events.
func (r *Recorder) StopRecording(trim int) (key.Sequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, ErrNotRecording
	}

	trim = min(max(trim, 0), len(r.events))
	recorded := r.events[:len(r.events)-trim].Clone()

	saved := recorded
	if r.appending {
		saved = append(r.registers[r.register].Clone(), recorded...)
	}
	if len(saved) > 0 {
		r.registers[r.register] = saved
	} else {
		delete(r.registers, r.register)
	}

	r.recording, r.appending = false, false
	r.events = nil
	return saved.Clone(), nil
}

// IsRecording returns true if currently recording.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentRegister returns the register being recorded to, or 0 if not recording.
func (r *Recorder) CurrentRegister() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return r.register
	}
	return 0
}

// Record adds a key event to the current recording.
// Does nothing if not recording.
func (r *Recorder) Record(event key.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		r.events = append(r.events, event)
	}
}

// CurrentRecordingLength returns the number of events recorded so far.
// Returns 0 if not recording.
func (r *Recorder) CurrentRecordingLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return len(r.events)
}

// Get retrieves a copy of the macro stored in a register.
func (r *Recorder) Get(register rune) key.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registers[NormalizeRegister(register)].Clone()
}

// Set stores a macro in a register, replacing any existing content.
// An uppercase name appends instead.
func (r *Recorder) Set(register rune, events key.Sequence) error {
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if IsAppendRegister(register) {
		events = append(r.registers[name].Clone(), events...)
	}
	if len(events) == 0 {
		delete(r.registers, name)
		return nil
	}
	r.registers[name] = events.Clone()
	return nil
}

// Append adds events to an existing macro in a register.
// If the register is empty, this creates a new macro.
func (r *Recorder) Append(register rune, events key.Sequence) error {
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registers[name] = append(r.registers[name].Clone(), events...)
	return nil
}

// Clear removes all events from a register.
func (r *Recorder) Clear(register rune) error {
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.registers, name)
	return nil
}

// ClearAll removes all macros from all registers.
func (r *Recorder) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registers = make(map[rune]key.Sequence)
	r.lastPlayed = 0
}

// HasMacro returns true if the register contains a macro.
func (r *Recorder) HasMacro(register rune) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registers[NormalizeRegister(register)]) > 0
}

// ListRegisters returns the registers that contain macros, sorted.
func (r *Recorder) ListRegisters() []rune {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]rune, 0, len(r.registers))
	for reg, events := range r.registers {
		if len(events) > 0 {
			result = append(result, reg)
		}
	}
	slices.Sort(result)
	return result
}

// EventCount returns the number of events in a register's macro.
func (r *Recorder) EventCount(register rune) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registers[NormalizeRegister(register)])
}

// SetLastPlayed sets the last played register (for @@ support).
func (r *Recorder) SetLastPlayed(register rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPlayed = register
}

// LastPlayed returns the last played register (for @@ support).
// Returns 0 if no macro has been played.
func (r *Recorder) LastPlayed() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPlayed
}

// SetLastCommand stores the last executed command line for "@:".
func (r *Recorder) SetLastCommand(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLine = line
}

// LastCommand returns the line stored by SetLastCommand.
func (r *Recorder) LastCommand() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLine
}

// IsPlaying reports whether the register is being played by any player.
func (r *Recorder) IsPlaying(register rune) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing[NormalizeRegister(register)] > 0
}

func (r *Recorder) beginPlay(register rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing[register]++
}

func (r *Recorder) endPlay(register rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing[register]--; r.playing[register] <= 0 {
		delete(r.playing, register)
	}
}

// GetAllRegisters returns a map of all registers and their contents.
// Used for persistence operations.
func (r *Recorder) GetAllRegisters() map[rune]key.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[rune]key.Sequence, len(r.registers))
	for reg, events := range r.registers {
		if len(events) > 0 {
			result[reg] = events.Clone()
		}
	}
	return result
}

// SetAllRegisters replaces all registers with the provided map.
// Used for persistence operations.
func (r *Recorder) SetAllRegisters(registers map[rune]key.Sequence) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registers = make(map[rune]key.Sequence, len(registers))
	for reg, events := range registers {
		if IsValidRegister(reg) && len(events) > 0 {
			r.registers[reg] = events.Clone()
		}
	}
}
