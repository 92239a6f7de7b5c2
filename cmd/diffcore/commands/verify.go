package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/diffparse"
	"github.com/Sumatoshi-tech/diffcore/pkg/verify"
)

// VerifyCommand holds the flags of the verify command.
type VerifyCommand struct {
	globals *Globals

	input    string
	document string
	noColor  bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(globals *Globals) *cobra.Command {
	vc := &VerifyCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a document reproduces its source diff",
		Long: `Tokenize the raw diff and the document independently and compare the
token streams. Without --document the diff is parsed first, which checks the
parser itself.

Exits with status 2 when the streams differ.

Examples:
  diffcore verify --input change.diff
  diffcore verify --input change.diff --document change.json`,
		Args: cobra.NoArgs,
		RunE: vc.Run,
	}

	cmd.Flags().StringVarP(&vc.input, "input", "i", "-", "diff file to read (- for stdin)")
	cmd.Flags().StringVarP(&vc.document, "document", "d", "", "previously serialized document to check")
	cmd.Flags().BoolVar(&vc.noColor, "no-color", false, "disable colored output")

	return cmd
}

// Run executes the verify command.
func (vc *VerifyCommand) Run(cmd *cobra.Command, _ []string) error {
	cfg, _, err := vc.globals.load(cmd)
	if err != nil {
		return err
	}

	rc, label, err := openInput(cmd, vc.input)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read diff: %w", err)
	}

	text := string(data)

	doc, err := vc.loadDocument(text, cfg.Parser.Strict)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pass, fail := newColor(color.FgGreen, vc.noColor), newColor(color.FgRed, vc.noColor)

	err = verify.Verify(text, doc)
	if err == nil {
		pass.Fprintf(out, "OK %s: %d files, %d hunks, %d tokens\n",
			label, doc.Totals.Files, doc.Totals.Hunks, len(verify.TokenizeRaw(text)))

		return nil
	}

	var mismatch *verify.MismatchError
	if !errors.As(err, &mismatch) {
		return err
	}

	fail.Fprintf(out, "MISMATCH %s\n", label)
	fmt.Fprintln(out, mismatch.Error())

	return &ExitError{Code: ExitCheckFailed, Err: err}
}

func (vc *VerifyCommand) loadDocument(text string, strict bool) (*diffmodel.Document, error) {
	if vc.document == "" {
		doc, err := diffparse.NewParser(diffparse.Options{Strict: strict}).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse diff: %w", err)
		}

		return doc, nil
	}

	enriched, err := readDocument(vc.document)
	if err != nil {
		return nil, err
	}

	return enriched.Unwrap(), nil
}

// readDocument decodes a serialized document, inferring the format from path.
func readDocument(path string) (*diffmodel.EnrichedDocument, error) {
	rc, err := diffmodel.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := diffmodel.Decode(rc, diffmodel.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return doc, nil
}

func newColor(attr color.Attribute, disabled bool) *color.Color {
	c := color.New(attr)
	if disabled {
		c.DisableColor()
	}

	return c
}
