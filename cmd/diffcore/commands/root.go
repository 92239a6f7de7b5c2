// Package commands implements CLI command handlers for diffcore.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/diffcore/pkg/config"
	"github.com/Sumatoshi-tech/diffcore/pkg/observability"
	"github.com/Sumatoshi-tech/diffcore/pkg/version"
)

// Exit codes. ExitCheckFailed reports a failed verification or validation.
const (
	ExitFailure     = 1
	ExitCheckFailed = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// Globals holds the persistent flags shared by every command.
type Globals struct {
	configPath string
	logLevel   string
	logJSON    bool
}

// NewRootCommand creates the diffcore root command with all subcommands.
func NewRootCommand() *cobra.Command {
	globals := &Globals{}

	rootCmd := &cobra.Command{
		Use:   "diffcore",
		Short: "Unified diff parser producing structured, stable-id documents",
		Long: `diffcore turns unified diff text into a structured document with stable
file and hunk ids, content hashes and optional surrounding source context.

Commands:
  parse      Parse a diff (from git, a file or stdin) into a document
  verify     Check that a document reproduces the diff it came from
  validate   Validate a serialized document against the schema
  correlate  Compare hunks across two documents
  mcp        Start the MCP server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.configPath, "config", "", "config file (default .diffcore.yaml in . or $HOME)")
	flags.StringVar(&globals.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&globals.logJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(NewParseCommand(globals))
	rootCmd.AddCommand(NewVerifyCommand(globals))
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewCorrelateCommand())
	rootCmd.AddCommand(NewMCPCommand(globals))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// load reads the configuration, applies the persistent flag overrides and
// builds the logger writing to the command's error stream.
func (g *Globals) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}

	if cmd.Flags().Changed("log-json") {
		cfg.Logging.JSON = g.logJSON
	}

	err = cfg.Validate()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, newLogger(cfg, cmd.ErrOrStderr()), nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogWriter = w

	return observability.NewLogger(obsCfg)
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	return tbl
}

// openInput opens path for reading; "-" or "" means standard input.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("open input: %w", err)
	}

	return f, path, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
