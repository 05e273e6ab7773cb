package input

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/macro"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/input/vim"
)

// SurfaceID identifies an editing surface.
type SurfaceID string

func newSurfaceID() SurfaceID {
	return SurfaceID(uuid.NewString())
}

// String returns the ID.
func (id SurfaceID) String() string {
	return string(id)
}

// surface is one editing surface: a document view with its own mode,
// command in progress and macro player. Keys for a surface are processed
// one at a time under mu.
type surface struct {
	mu sync.Mutex

	id     SurfaceID
	buffer string
	modes  mode.Reporter

	builder *vim.Builder
	player  *macro.Player

	// returnMode is the mode to restore after the transient
	// OperatorPending or CommandLine mode, None otherwise.
	returnMode mode.Mode

	// lastMode is the mode when the previous call returned. A different
	// mode at the next call means the host switched modes in between.
	lastMode mode.Mode

	// keys are the keys interpreted since the builder was last idle.
	keys key.Sequence

	// typed counts the recorded keys of the command being typed. They are
	// trimmed from the register when the command stops the recording.
	typed int

	lastChange *change
	capturing  bool
	replaying  int
}

// change is the last change, repeated by ".".
type change struct {
	cmd *command.Command

	// keys were typed in Insert or Replace mode after cmd, up to and
	// including the key that left it.
	keys key.Sequence
}

// baseMode is the mode commands are resolved in: the host's mode, or
// the mode that was active before a transient mode was entered.
func (s *surface) baseMode() mode.Mode {
	if s.returnMode != mode.None {
		return s.returnMode
	}
	return s.modes.Mode()
}

// reset discards the command in progress.
func (s *surface) reset() {
	s.builder.Reset()
	s.keys = s.keys[:0]
	s.returnMode = mode.None
}

// SurfaceOption configures a surface opened by OpenSurface.
type SurfaceOption func(*surfaceOptions)

type surfaceOptions struct {
	buffer string
	modes  mode.Reporter
	start  mode.Mode
}

// WithBuffer names the buffer shown in the surface. Its buffer-local
// mappings become visible.
func WithBuffer(id string) SurfaceOption {
	return func(o *surfaceOptions) {
		o.buffer = id
	}
}

// WithModeReporter lets the host own the surface's mode.
func WithModeReporter(r mode.Reporter) SurfaceOption {
	return func(o *surfaceOptions) {
		o.modes = r
	}
}

// WithStartMode sets the initial mode when the dispatcher tracks modes
// itself. It is ignored together with WithModeReporter.
func WithStartMode(m mode.Mode) SurfaceOption {
	return func(o *surfaceOptions) {
		o.start = m
	}
}
