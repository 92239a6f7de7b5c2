package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/diffparse"
	"github.com/Sumatoshi-tech/diffcore/pkg/enrich"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
	"github.com/Sumatoshi-tech/diffcore/pkg/verify"
)

// handleParse processes diff_parse tool calls.
func (s *Server) handleParse(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDiffInput(input.Diff)
	if err != nil {
		return errorResult(err)
	}

	radius := enrich.DefaultRadius
	if input.Radius != nil {
		radius = *input.Radius
	}

	if radius < 0 {
		return errorResult(fmt.Errorf("%w: %d", ErrInvalidRadius, radius))
	}

	doc, err := diffparse.NewParser(diffparse.Options{Strict: input.Strict}).Parse(input.Diff)
	if err != nil {
		return errorResult(fmt.Errorf("parse diff: %w", err))
	}

	s.parseMetrics.RecordDocument(ctx, doc)

	if input.RepoPath == "" || radius == 0 {
		return jsonResult(diffmodel.Wrap(doc).Escaped())
	}

	enriched, err := s.enrich(ctx, doc, input.RepoPath, radius)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(enriched.Escaped())
}

func (s *Server) enrich(ctx context.Context, doc *diffmodel.Document, repoPath string, radius int) (*diffmodel.EnrichedDocument, error) {
	err := validateRepoPath(repoPath)
	if err != nil {
		return nil, err
	}

	repo, err := gitlib.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	defer repo.Free()

	opts := enrich.Options{
		Radius:  radius,
		Logger:  s.logger,
		Metrics: s.parseMetrics,
	}

	if workdir := repo.Workdir(); workdir != "" {
		opts.Worktree = enrich.NewWorktree(workdir)
	}

	enricher, err := enrich.New(enrich.NewCachedSource(repo, 0), opts)
	if err != nil {
		return nil, err
	}

	return enricher.Enrich(ctx, doc), nil
}

// handleVerify processes diff_verify tool calls.
func (s *Server) handleVerify(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input VerifyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDiffInput(input.Diff)
	if err != nil {
		return errorResult(err)
	}

	doc, err := diffparse.Parse(input.Diff)
	if err != nil {
		return errorResult(fmt.Errorf("parse diff: %w", err))
	}

	report := VerifyReport{
		OK:     true,
		Files:  doc.Totals.Files,
		Hunks:  doc.Totals.Hunks,
		Tokens: len(verify.TokenizeRaw(input.Diff)),
	}

	err = verify.Verify(input.Diff, doc)
	if err != nil {
		var mismatch *verify.MismatchError
		if !errors.As(err, &mismatch) {
			return errorResult(err)
		}

		report.OK = false
		report.Mismatch = mismatch.Error()
	}

	return jsonResult(report)
}
