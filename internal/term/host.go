// Package term drives a dispatcher from a terminal. It converts tcell
// key events, runs the timeout that settles ambiguous mappings and draws
// the commands a session produced with a Vim-like status line.
package term

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/modalkeys/internal/input"
	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/input/vim"
	"github.com/dshills/modalkeys/internal/logging"
)

// ErrQuit is returned by Run when a quit command was typed.
var ErrQuit = errors.New("quit requested")

// DefaultTimeout is Vim's default 'timeoutlen'.
const DefaultTimeout = time.Second

// maxTranscript bounds the command lines kept for display.
const maxTranscript = 500

var quitLines = map[string]bool{
	"q": true, "q!": true, "qa": true, "qa!": true,
	"quit": true, "wq": true, "x": true, "xa": true,
}

// Host is an interactive terminal session around one surface.
type Host struct {
	screen  tcell.Screen
	timeout time.Duration
	showCmd bool
	logger  *logging.Logger

	mu         sync.Mutex
	d          *input.Dispatcher
	id         input.SurfaceID
	transcript []string
	last       input.Outcome
	ambiguous  bool
	quit       bool
}

// Option configures a Host.
type Option func(*Host)

// WithTimeout sets how long an ambiguous key sequence waits for more
// keys. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// WithShowCmd enables the pending keys display.
func WithShowCmd(on bool) Option {
	return func(h *Host) {
		h.showCmd = on
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates a host drawing on screen.
func NewHost(screen tcell.Screen, opts ...Option) *Host {
	h := &Host{
		screen:  screen,
		timeout: DefaultTimeout,
		showCmd: true,
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("term")
	return h
}

// Attach sets the dispatcher and surface keys are submitted to.
func (h *Host) Attach(d *input.Dispatcher, id input.SurfaceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.d, h.id = d, id
}

// Execute implements input.Executor by adding each command to the
// transcript.
func (h *Host) Execute(_ context.Context, cmd *command.Command, state input.SurfaceState) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	line := fmt.Sprintf("%-8s %-10s %s", state.Mode, cmd.Keys.String(), cmd.String())
	h.transcript = append(h.transcript, line)
	if len(h.transcript) > maxTranscript {
		h.transcript = slices.Delete(h.transcript, 0, len(h.transcript)-maxTranscript)
	}
	return nil
}

// Transcript returns the lines added by Execute, oldest first.
func (h *Host) Transcript() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.transcript)
}

// HandleKey submits a terminal key event. It reports whether the
// session should end.
func (h *Host) HandleKey(ctx context.Context, ev *tcell.EventKey) (bool, error) {
	kev, ok := Event(ev)
	if !ok {
		h.logger.Debug("unsupported key", "name", ev.Name())
		return false, nil
	}

	h.mu.Lock()
	d, id := h.d, h.id
	h.mu.Unlock()
	if d == nil {
		return false, errors.New("no dispatcher attached")
	}

	out, err := d.SubmitKey(ctx, id, kev)
	if err != nil {
		return false, err
	}
	return h.settle(out), nil
}

// Resolve forces an ambiguous sequence, as when the timeout expires.
func (h *Host) Resolve(ctx context.Context) (bool, error) {
	h.mu.Lock()
	d, id := h.d, h.id
	h.mu.Unlock()
	if d == nil {
		return false, nil
	}
	out, err := d.ForceResolveAmbiguous(ctx, id)
	if err != nil {
		return false, err
	}
	return h.settle(out), nil
}

func (h *Host) settle(out input.Outcome) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = out
	h.ambiguous = out.Status == input.StatusPending && out.State != vim.StateAwaitingArgument
	for _, cmd := range out.Commands {
		if isQuit(cmd) {
			h.quit = true
		}
	}
	if err := out.Err(); err != nil {
		h.logger.Debug("key failed", "status", out.Status, "error", err)
	}
	return h.quit
}

func isQuit(cmd *command.Command) bool {
	switch cmd.ID() {
	case "file.quit", "file.writeQuit":
		return true
	case command.IDExCommand:
		return quitLines[strings.TrimSpace(cmd.Argument.Text)]
	}
	return false
}

// Ambiguous reports whether the last key left a sequence that a longer
// mapping could still extend.
func (h *Host) Ambiguous() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ambiguous
}

// Run processes key events from the initialized screen until a quit
// command, ctx is done or the screen closes. A quit command returns
// ErrQuit. The caller finalizes the screen.
func (h *Host) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	stop := make(chan struct{})
	defer close(stop)
	go h.screen.ChannelEvents(events, stop)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	h.draw()
	for {
		var (
			done bool
			err  error
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			done, err = h.Resolve(ctx)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				timer.Stop()
				done, err = h.HandleKey(ctx, ev)
			case *tcell.EventResize:
				h.screen.Sync()
			}
		}
		if err != nil {
			return err
		}
		if done {
			return ErrQuit
		}
		if h.Ambiguous() && h.timeout > 0 {
			timer.Reset(h.timeout)
		}
		h.draw()
	}
}

func (h *Host) draw() {
	h.mu.Lock()
	lines := h.transcript
	out := h.last
	h.mu.Unlock()

	h.screen.Clear()
	width, height := h.screen.Size()
	if height < 3 {
		h.screen.Show()
		return
	}

	body := height - 2
	start := max(len(lines)-body, 0)
	for y, line := range lines[start:] {
		drawText(h.screen, 0, y, width, line, tcell.StyleDefault)
	}

	status := tcell.StyleDefault.Reverse(true)
	for x := range width {
		h.screen.SetContent(x, height-2, ' ', nil, status)
	}
	drawText(h.screen, 0, height-2, width, statusLeft(out), status)
	if h.showCmd && out.Pending != "" {
		w := runewidth.StringWidth(out.Pending)
		drawText(h.screen, max(width-w-1, 0), height-2, width, out.Pending, status)
	}

	drawText(h.screen, 0, height-1, width, messageLine(out), tcell.StyleDefault)
	h.screen.Show()
}

func statusLeft(out input.Outcome) string {
	var b strings.Builder
	if out.Mode != mode.None && out.Mode != mode.Normal {
		fmt.Fprintf(&b, "-- %s --", strings.ToUpper(out.Mode.String()))
	}
	if out.Recording != 0 {
		if b.Len() > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "recording @%c", out.Recording)
	}
	return b.String()
}

func messageLine(out input.Outcome) string {
	switch {
	case out.CommandLine != "":
		return out.CommandLine
	case len(out.Errors) > 0:
		return out.Errors[len(out.Errors)-1].Error()
	case len(out.Messages) > 0:
		return out.Messages[len(out.Messages)-1]
	}
	return ""
}

// drawText writes s from column x, clipped to width cells.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
}
