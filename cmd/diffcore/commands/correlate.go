package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/diffcore/pkg/correlate"
)

// NewCorrelateCommand creates the correlate command.
func NewCorrelateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "correlate <old-document> <new-document>",
		Short: "Classify hunks across two documents by stable id and content hash",
		Long: `Compare two serialized documents, for example a change before and after a
rebase, and classify every hunk as unchanged, changed, moved, added or removed.

Examples:
  diffcore correlate before.json after.json
  diffcore correlate --json before.yaml after.yaml`,
		Args: cobra.ExactArgs(2), //nolint:mnd // old and new.
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := readDocument(args[0])
			if err != nil {
				return err
			}

			next, err := readDocument(args[1])
			if err != nil {
				return err
			}

			report := correlate.Correlate(prev.Unwrap(), next.Unwrap())

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(report)
			}

			writeCorrelation(cmd.OutOrStdout(), report)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func writeCorrelation(w io.Writer, report *correlate.Report) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Kind", "Path", "Old ID", "New ID"})

	for _, m := range report.Hunks {
		tbl.AppendRow(table.Row{m.Kind, m.Path, m.OldID, m.NewID})
	}

	counts := make([]string, 0, len(correlate.Kinds))
	for _, kind := range correlate.Kinds {
		counts = append(counts, fmt.Sprintf("%s %d", kind, report.Counts[kind]))
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d hunks", len(report.Hunks)), strings.Join(counts, ", ")})
	tbl.Render()
}
