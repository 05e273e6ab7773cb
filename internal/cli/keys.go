package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/modalkeys/internal/app"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/mode"
)

type keysOptions struct {
	*globalOptions
	modes    string
	filter   string
	mappings bool
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(global *globalOptions) *cobra.Command {
	opts := &keysOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "keys [prefix]",
		Short: "List key bindings and mappings",
		Long: "List the bindings of the mapping tables, like Vim's :map. A prefix in\n" +
			"Vim notation limits the list to sequences starting with it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return runKeys(cmd, opts, prefix)
		},
	}
	cmd.Flags().StringVarP(&opts.modes, "modes", "m", "n", "mapping tables as map-command letters (n, x, o, i, c, ...)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "only entries whose command or replacement contains this text")
	cmd.Flags().BoolVar(&opts.mappings, "mappings", false, "only user mappings, no built-in bindings")
	return cmd
}

func runKeys(cmd *cobra.Command, opts *keysOptions, prefix string) error {
	tables, err := mode.ParseMapModes(opts.modes)
	if err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	cfg.Macro.Store = "none"
	cfg.Script.Engine = "none"

	a, err := app.New(app.Options{Config: cfg, LogOutput: opts.logOutput(cmd)})
	if err != nil {
		return err
	}
	defer a.Close()

	seq, err := parsePrefix(prefix, cfg.Mapping.Leader)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	count := 0
	for _, mm := range tables {
		for _, e := range a.Keymaps().Candidates(mm, keymap.Scope{}, seq) {
			if opts.mappings && e.IsBuiltin() {
				continue
			}
			if opts.filter != "" && !strings.Contains(e.RHS(), opts.filter) {
				continue
			}
			desc := ""
			if e.Command != nil {
				desc = e.Command.Description
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Mode, e.Keys, e.RHS(), e.Owner, desc)
			count++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if count == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no bindings found")
	}
	return nil
}

func parsePrefix(prefix, leader string) (key.Sequence, error) {
	if prefix == "" {
		return nil, nil
	}
	seq, err := key.ParseSequence(keymap.ExpandLeader(prefix, leader))
	if err != nil {
		return nil, fmt.Errorf("parsing prefix: %w", err)
	}
	return seq, nil
}
