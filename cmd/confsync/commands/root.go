package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	version string

	configPath    string
	store         string
	logLevel      string
	logFormat     string
	metricsFile   string
	traceExporter string
	otlpEndpoint  string
	noColor       bool
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &globalOptions{version: version}

	rootCmd := &cobra.Command{
		Use:   "confsync",
		Short: "confsync - Declarative configuration reconciliation",
		Long: `confsync reconciles a desired-state document with the live configuration
of a remote system.

A document lists tenants, folders, switches, DNs and other entities. confsync:
  - Validates the document against the live configuration
  - Plans one create, update or skip per entity in dependency order
  - Breaks reference cycles with a bare create and a later reference update
  - Applies the plan after confirmation and records the run`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "settings file path (default $HOME/.confsync/settings.yaml)")
	flags.StringVar(&opts.store, "store", "", "live configuration database path")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.StringVar(&opts.traceExporter, "trace-exporter", "", "trace exporter (none, stdout, otlp)")
	flags.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "OTLP collector address (host:port)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newPlanCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))

	return rootCmd
}

// reportedError marks an error that was already printed to the operator.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// IsReported returns true if err was already printed by the command that
// returned it.
func IsReported(err error) bool {
	var reported *reportedError
	return errors.As(err, &reported)
}
