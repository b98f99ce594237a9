// Package cli implements the casegen command line.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/casegen/internal/config"
	"github.com/roach88/casegen/internal/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string

	// Config is resolved from the environment when the command is built.
	Config *config.Config

	// Logger is built by the root command before any subcommand runs.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogLevels defines the accepted --log-level values.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// NewRootCommand creates the root command for the casegen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.FromEnv()}

	cmd := &cobra.Command{
		Use:   "casegen",
		Short: "casegen - declarative test-case synthesis",
		Long: `Inspect and author the scenario files that casegen turns into Go subtests.

Scenarios are YAML, JSON, HuJSON or CUE files describing parameters, expected
results and mocks. Each one becomes an independent test method of the suite
that imports its directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.LogLevel != "" && !slices.Contains(ValidLogLevels, opts.LogLevel) {
				return fmt.Errorf("invalid log level %q: must be one of %v", opts.LogLevel, ValidLogLevels)
			}

			logCfg := *opts.Config.Log
			switch {
			case opts.LogLevel != "":
				logCfg.Level = opts.LogLevel
			case opts.Verbose:
				logCfg.Level = "debug"
			}
			logCfg.Output = cmd.ErrOrStderr()
			opts.Logger = log.New(&logCfg)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func (opts *RootOptions) logger() *slog.Logger {
	return log.OrDefault(opts.Logger)
}
