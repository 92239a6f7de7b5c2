package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/diffcore/pkg/config"
	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/diffparse"
	"github.com/Sumatoshi-tech/diffcore/pkg/difftool"
	"github.com/Sumatoshi-tech/diffcore/pkg/enrich"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
	"github.com/Sumatoshi-tech/diffcore/pkg/identity"
)

// ErrInputConflict is returned when both --git and --input are given.
var ErrInputConflict = errors.New("--git and --input are mutually exclusive")

// ParseCommand holds the flags of the parse command.
type ParseCommand struct {
	globals *Globals

	git       bool
	input     string
	output    string
	format    string
	radius    int
	noContext bool
	beforeRev string
	afterRev  string
	repo      string
	strict    bool
	summary   bool
}

// NewParseCommand creates the parse command.
func NewParseCommand(globals *Globals) *cobra.Command {
	pc := &ParseCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   "parse [flags] [-- <git diff args>...]",
		Short: "Parse a unified diff into a structured document",
		Long: `Parse unified diff text into a document with stable ids and content hashes.

The diff is read from --input (a file, or - for stdin), or produced by running
git diff with the remaining arguments when --git is set. Hunks are enriched
with surrounding source context from the repository unless --no-context is
given or the radius is zero.

Examples:
  git diff | diffcore parse
  diffcore parse --git -- HEAD~1 HEAD
  diffcore parse --input change.diff --output change.yaml.lz4
  diffcore parse --git --summary`,
		RunE: pc.Run,
	}

	flags := cmd.Flags()
	flags.BoolVar(&pc.git, "git", false, "run git diff with the positional arguments")
	flags.StringVarP(&pc.input, "input", "i", "", "diff file to read (- for stdin)")
	flags.StringVarP(&pc.output, "output", "o", "", "write the document to a file (.json, .yaml, optional .lz4)")
	flags.StringVarP(&pc.format, "format", "f", "", "document format: json or yaml")
	flags.IntVar(&pc.radius, "context-radius", config.DefaultContextRadius, "lines of context around each hunk")
	flags.BoolVar(&pc.noContext, "no-context", false, "skip context enrichment")
	flags.StringVar(&pc.beforeRev, "before-rev", "", "revision holding the pre-change content")
	flags.StringVar(&pc.afterRev, "after-rev", "", "revision holding the post-change content")
	flags.StringVar(&pc.repo, "repo", "", "repository directory (default: context.worktree)")
	flags.BoolVar(&pc.strict, "strict", false, "reject malformed hunks instead of tolerating them")
	flags.BoolVar(&pc.summary, "summary", false, "print a per-file summary table")

	return cmd
}

// Run executes the parse command.
func (pc *ParseCommand) Run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := pc.globals.load(cmd)
	if err != nil {
		return err
	}

	pc.applyFlags(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := cmd.Context()

	text, err := pc.readDiff(ctx, cmd, cfg, logger, args)
	if err != nil {
		return err
	}

	ids, err := identity.NewGenerator(cfg.Identity.Length)
	if err != nil {
		return err
	}

	doc, err := diffparse.NewParser(diffparse.Options{IDs: ids, Strict: cfg.Parser.Strict}).Parse(text)
	if err != nil {
		return fmt.Errorf("parse diff: %w", err)
	}

	enriched, err := pc.enrich(ctx, cfg, logger, doc)
	if err != nil {
		return err
	}

	if pc.summary {
		writeSummary(cmd.OutOrStdout(), enriched, len(text))

		if pc.output == "" {
			return nil
		}
	}

	return pc.writeDocument(cmd, cfg, enriched)
}

func (pc *ParseCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("context-radius") {
		cfg.Context.Radius = pc.radius
	}

	if pc.noContext {
		cfg.Context.Enabled = false
	}

	if flags.Changed("before-rev") {
		cfg.Context.BeforeRev = pc.beforeRev
	}

	if flags.Changed("after-rev") {
		cfg.Context.AfterRev = pc.afterRev
	}

	if flags.Changed("repo") {
		cfg.Context.Worktree = pc.repo
	}

	if flags.Changed("strict") {
		cfg.Parser.Strict = pc.strict
	}

	switch {
	case flags.Changed("format"):
		cfg.Output.Format = pc.format
	case pc.output != "":
		cfg.Output.Format = string(diffmodel.FormatFromPath(pc.output))
	}
}

func (pc *ParseCommand) readDiff(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	logger *slog.Logger,
	args []string,
) (string, error) {
	if !pc.git {
		if len(args) > 0 {
			return "", fmt.Errorf("unexpected arguments %q without --git", args)
		}

		rc, _, err := openInput(cmd, pc.input)
		if err != nil {
			return "", err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read diff: %w", err)
		}

		return string(data), nil
	}

	if pc.input != "" {
		return "", ErrInputConflict
	}

	runner := difftool.New(
		difftool.WithBinary(cfg.Git.Binary),
		difftool.WithArgs(cfg.Git.DiffArgs),
		difftool.WithDir(cfg.Context.Worktree),
		difftool.WithLogger(logger),
	)

	return runner.Diff(ctx, args...)
}

// enrich attaches context when enabled. A directory that is not a repository
// degrades to the plain document.
func (pc *ParseCommand) enrich(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	doc *diffmodel.Document,
) (*diffmodel.EnrichedDocument, error) {
	if !cfg.Context.Enabled || cfg.Context.Radius == 0 || len(doc.Files) == 0 {
		return diffmodel.Wrap(doc), nil
	}

	repo, err := gitlib.OpenRepository(cfg.Context.Worktree)
	if err != nil {
		logger.Warn("context enrichment skipped", "dir", cfg.Context.Worktree, "error", err)

		return diffmodel.Wrap(doc), nil
	}
	defer repo.Free()

	cacheBytes, err := cfg.Context.CacheBytes()
	if err != nil {
		return nil, err
	}

	opts := enrich.Options{
		Radius:    cfg.Context.Radius,
		Workers:   cfg.Context.Workers,
		BeforeRev: cfg.Context.BeforeRev,
		AfterRev:  cfg.Context.AfterRev,
		Logger:    logger,
	}

	if workdir := repo.Workdir(); workdir != "" {
		opts.Worktree = enrich.NewWorktree(workdir)
	}

	enricher, err := enrich.New(enrich.NewCachedSource(repo, cacheBytes), opts)
	if err != nil {
		return nil, err
	}

	return enricher.Enrich(ctx, doc), nil
}

func (pc *ParseCommand) writeDocument(cmd *cobra.Command, cfg *config.Config, doc *diffmodel.EnrichedDocument) error {
	format, err := diffmodel.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	if pc.output == "" {
		return diffmodel.Encode(cmd.OutOrStdout(), doc, format, cfg.Output.Pretty)
	}

	w, err := diffmodel.CreateFile(pc.output)
	if err != nil {
		return err
	}

	err = diffmodel.Encode(w, doc, format, cfg.Output.Pretty)
	if err != nil {
		w.Close()

		return err
	}

	return w.Close()
}

func writeSummary(w io.Writer, doc *diffmodel.EnrichedDocument, inputBytes int) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"File", "Status", "Language", "+", "-", "Hunks", "Context"})

	for i := range doc.Files {
		file := &doc.Files[i]

		attached := 0

		for j := range file.Hunks {
			if !file.Hunks[j].Context.Empty() {
				attached++
			}
		}

		status := string(file.Status)
		if file.Binary {
			status += " (binary)"
		}

		tbl.AppendRow(table.Row{
			displayPath(&file.FileDiff),
			status,
			file.Language,
			humanize.Comma(int64(file.Stats.Additions)),
			humanize.Comma(int64(file.Stats.Deletions)),
			file.Stats.Hunks,
			fmt.Sprintf("%d/%d", attached, len(file.Hunks)),
		})
	}

	totals := doc.Totals
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files, %s", totals.Files, humanize.Bytes(uint64(inputBytes))), //nolint:gosec // lengths are non-negative.
		"",
		"",
		humanize.Comma(int64(totals.Additions)),
		humanize.Comma(int64(totals.Deletions)),
		totals.Hunks,
		fmt.Sprintf("%d/%d", doc.Attached(), totals.Hunks),
	})

	tbl.Render()
}

func displayPath(file *diffmodel.FileDiff) string {
	if file.OldPath != "" && file.NewPath != "" && file.OldPath != file.NewPath {
		return file.OldPath + " => " + file.NewPath
	}

	return file.Path()
}
