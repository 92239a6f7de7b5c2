package mcp

import (
	"context"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib/gitlibtest"
)

func TestValidateDiffInput(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, validateDiffInput(""), ErrEmptyDiff)
	require.ErrorIs(t, validateDiffInput(strings.Repeat("x", MaxDiffInputBytes+1)), ErrDiffTooLarge)
	require.NoError(t, validateDiffInput("diff --git a/f b/f\n"))
}

func TestHandleParse_AttachesContextFromRepository(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.WriteFile("a.txt", "zero\none\ntwo\nthree\n")
	fixture.Commit("first")
	fixture.WriteFile("a.txt", "zero\none\n2\nthree\n")

	diff := "diff --git a/a.txt b/a.txt\n--- a/a.txt\n+++ b/a.txt\n@@ -2,2 +2,2 @@\n one\n-two\n+2\n"

	srv := NewServer(ServerDeps{})
	radius := 1

	result, output, err := srv.handleParse(context.Background(), &mcpsdk.CallToolRequest{}, ParseInput{
		Diff:     diff,
		RepoPath: fixture.Path,
		Radius:   &radius,
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	doc, ok := output.Data.(*diffmodel.EnrichedDocument)
	require.True(t, ok)

	ctx := doc.Files[0].Hunks[0].Context
	require.NotNil(t, ctx)

	// No object ids or revisions: only the working tree resolves.
	assert.Nil(t, ctx.Before)
	require.NotNil(t, ctx.After)
	assert.Equal(t, []string{"zero", "one", "2", "three"}, ctx.After.Lines)
}

func TestHandleVerify_ReportsMismatchForCorruptInput(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	// The stray line is kept as context by the lenient parser but is not a
	// hunk line to the raw tokenizer.
	diff := "diff --git a/f b/f\n--- a/f\n+++ b/f\n@@ -1,2 +1,2 @@\n x\n?y\n"

	result, output, err := srv.handleVerify(context.Background(), &mcpsdk.CallToolRequest{}, VerifyInput{Diff: diff})
	require.NoError(t, err)
	require.False(t, result.IsError)

	report, ok := output.Data.(VerifyReport)
	require.True(t, ok)
	assert.False(t, report.OK)
	assert.Contains(t, report.Mismatch, "token streams differ")
}

func TestHandleParse_ZeroRadiusDisablesContext(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.WriteFile("a.txt", "one\ntwo\n")
	fixture.Commit("first")

	diff := "diff --git a/a.txt b/a.txt\n--- a/a.txt\n+++ b/a.txt\n@@ -1,2 +1,2 @@\n one\n-two\n+2\n"

	srv := NewServer(ServerDeps{})
	zero := 0

	result, output, err := srv.handleParse(context.Background(), &mcpsdk.CallToolRequest{}, ParseInput{
		Diff:     diff,
		RepoPath: fixture.Path,
		Radius:   &zero,
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	doc, ok := output.Data.(*diffmodel.EnrichedDocument)
	require.True(t, ok)
	assert.Zero(t, doc.Attached())
	assert.Nil(t, doc.Files[0].Hunks[0].Context)

	// Omitting the radius attaches the default window.
	result, output, err = srv.handleParse(context.Background(), &mcpsdk.CallToolRequest{}, ParseInput{
		Diff:     diff,
		RepoPath: fixture.Path,
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	doc, ok = output.Data.(*diffmodel.EnrichedDocument)
	require.True(t, ok)
	require.NotNil(t, doc.Files[0].Hunks[0].Context)
	assert.Equal(t, 20, doc.Files[0].Hunks[0].Context.Radius)
}

func TestHandleParse_KeepsNonUTF8Text(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, output, err := srv.handleParse(context.Background(), &mcpsdk.CallToolRequest{}, ParseInput{
		Diff: "diff --git a/f b/f\n--- a/f\n+++ b/f\n@@ -1 +1 @@\n-caf\xe9\n+cafe\n",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	doc, ok := output.Data.(*diffmodel.EnrichedDocument)
	require.True(t, ok)

	line := doc.Files[0].Hunks[0].Lines[0]
	assert.Equal(t, "caf\xe9", line.Text)
	assert.Equal(t, "Y2Fm6Q==", line.TextBase64)
}
