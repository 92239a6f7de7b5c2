package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a serialized document against the document schema",
		Long: `Validate a JSON or YAML document (optionally .lz4 compressed) against the
embedded document schema.

Exits with status 2 when the document does not match.

Examples:
  diffcore validate change.json
  diffcore validate change.yaml.lz4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], noColor)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, noColor bool) error {
	out := cmd.OutOrStdout()

	err := diffmodel.ValidateFile(path)
	if err == nil {
		newColor(color.FgGreen, noColor).Fprintf(out, "Document is valid (%s)\n", path)

		return nil
	}

	var schemaErr *diffmodel.SchemaError
	if !errors.As(err, &schemaErr) {
		return err
	}

	fail := newColor(color.FgRed, noColor)
	fail.Fprintf(out, "Document validation failed (%s)\n", path)

	fmt.Fprintf(out, "\nErrors:\n")

	for _, v := range schemaErr.Violations {
		fail.Fprintf(out, "  - %s: %s\n", v.Field, v.Description)
	}

	return &ExitError{Code: ExitCheckFailed, Err: err}
}
