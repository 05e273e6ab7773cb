package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/modalkeys/internal/app"
	"github.com/dshills/modalkeys/internal/input"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
)

type replayOptions struct {
	*globalOptions
	format  string
	mode    string
	buffer  string
	engine  string
	macros  bool
	maps    []string
	perKey  bool
	timeout bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(global *globalOptions) *cobra.Command {
	opts := &replayOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "replay <keys>...",
		Short: "Interpret keys and print the commands they produce",
		Long: "Interpret keys written in Vim notation and print the resulting commands.\n" +
			"Several arguments are joined into one key sequence.",
		Example: `  modalkeys replay 3d2w
  modalkeys replay --format json 'qa0dwjq' '3@a'
  modalkeys replay --map 'n:<Leader>d=dd' '\d'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, strings.Join(args, ""))
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "start mode (default from configuration)")
	cmd.Flags().StringVar(&opts.buffer, "buffer", "", "buffer name for buffer-local mappings")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "script engine: lua, js or none")
	cmd.Flags().BoolVar(&opts.macros, "macros", false, "load and save macro registers from the configured store")
	cmd.Flags().StringArrayVar(&opts.maps, "map", nil, "extra mapping as [modes:]lhs=rhs, may be repeated")
	cmd.Flags().BoolVar(&opts.perKey, "per-key", false, "report every key instead of the whole sequence")
	cmd.Flags().BoolVar(&opts.timeout, "timeout", true, "settle a trailing ambiguous mapping as if 'timeoutlen' expired")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *replayOptions, notation string) error {
	seq, err := key.ParseSequence(notation)
	if err != nil {
		return fmt.Errorf("parsing keys: %w", err)
	}
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.mode != "" {
		cfg.Input.StartMode = opts.mode
	}
	if opts.engine != "" {
		cfg.Script.Engine = opts.engine
	}
	if !opts.macros {
		cfg.Macro.Store = "none"
	}

	a, err := app.New(app.Options{Config: cfg, LogOutput: opts.logOutput(cmd)})
	if err != nil {
		return err
	}
	defer a.Close()

	for _, m := range opts.maps {
		if err := addMapping(a.Dispatcher(), m); err != nil {
			return err
		}
	}

	var surfaceOpts []input.SurfaceOption
	if opts.buffer != "" {
		surfaceOpts = append(surfaceOpts, input.WithBuffer(opts.buffer))
	}
	id, err := a.OpenSurface(surfaceOpts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outs, err := a.Dispatcher().SubmitKeys(ctx, id, seq)
	if err != nil {
		return err
	}
	if opts.timeout && len(outs) > 0 && outs[len(outs)-1].Status == input.StatusPending {
		out, err := a.Dispatcher().ForceResolveAmbiguous(ctx, id)
		if err != nil {
			return err
		}
		outs = append(outs, out)
	}

	var reports []Report
	if opts.perKey {
		for i, out := range outs {
			keys := "(timeout)"
			if i < len(seq) {
				keys = seq[i].String()
			}
			reports = append(reports, newReport(keys, out))
		}
	} else {
		reports = []Report{summarize(seq.String(), outs)}
	}
	return writeReports(cmd.OutOrStdout(), format, reports)
}

// addMapping registers a --map flag value such as "nx:<Leader>y=\"+y".
func addMapping(d *input.Dispatcher, spec string) error {
	lhs, rhs, ok := strings.Cut(spec, "=")
	if !ok || lhs == "" {
		return fmt.Errorf("invalid mapping %q: want [modes:]lhs=rhs", spec)
	}
	modes := "n"
	if m, rest, ok := strings.Cut(lhs, ":"); ok && m != "" && rest != "" && !strings.ContainsAny(m, "<>") {
		modes, lhs = m, rest
	}
	if err := d.RegisterMapping(keymap.Global(), modes, lhs, rhs, keymap.FlagRecursive); err != nil {
		return fmt.Errorf("mapping %q: %w", spec, err)
	}
	return nil
}
