// Package cli implements the modalkeys command line.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/modalkeys/internal/config"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "modalkeys",
		Short: "modalkeys - a Vim keystroke interpreter",
		Long: "modalkeys turns keystrokes into editor commands the way Vim does: counts,\n" +
			"registers, operators with motions, mappings and macros.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (TOML or YAML)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTTYCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	return cmd
}

// loadConfig reads the configuration named by --config, or the default
// file when the flag is not set.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	return config.Load(path, os.Environ())
}

func (o *globalOptions) logOutput(cmd *cobra.Command) io.Writer {
	if !o.verbose {
		return nil
	}
	return cmd.ErrOrStderr()
}
