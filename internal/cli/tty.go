package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/modalkeys/internal/app"
	"github.com/dshills/modalkeys/internal/input"
	"github.com/dshills/modalkeys/internal/term"
)

type ttyOptions struct {
	*globalOptions
	logFile string
}

// NewTTYCommand creates the tty command.
func NewTTYCommand(global *globalOptions) *cobra.Command {
	opts := &ttyOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "tty",
		Short: "Type keys interactively and watch the commands they produce",
		Long: "Open an interactive session on the terminal. Every completed command is\n" +
			"listed; the status line shows the mode, macro recording and pending keys.\n" +
			"Quit with ZZ, ZQ or :q.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			return runTTY(cmd, opts, screen)
		},
	}
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	return cmd
}

func runTTY(cmd *cobra.Command, opts *ttyOptions, screen tcell.Screen) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	appOpts := app.Options{Config: cfg, Watch: true}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		appOpts.LogOutput = f
	}

	host := term.NewHost(screen,
		term.WithTimeout(cfg.Timeout()),
		term.WithShowCmd(cfg.Input.ShowCmd))
	appOpts.Executor = host

	a, err := app.New(appOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.OpenSurface(input.WithBuffer("scratch-" + uuid.NewString()[:8]))
	if err != nil {
		return err
	}
	host.Attach(a.Dispatcher(), id)
	a.Logger().Info("tty session started", "surface", id)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger().Warn("mapping watcher stopped", "error", err)
		}
	}()

	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	err = host.Run(ctx)
	if errors.Is(err, term.ErrQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
