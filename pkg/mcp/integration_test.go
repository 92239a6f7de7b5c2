package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/mcp"
)

const sampleDiff = `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,2 +1,2 @@
 one
-two
+2
`

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return ctx, session
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})
	assert.Equal(t, []string{mcp.ToolNameParse, mcp.ToolNameVerify}, srv.ListToolNames())

	ctx, session := connect(t, srv)

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, toolsResult.Tools, 2)

	for _, tool := range toolsResult.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}
}

func TestMCPServer_InMemoryTransport_CallParse(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolNameParse,
		Arguments: map[string]any{"diff": sampleDiff},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	var doc diffmodel.EnrichedDocument
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &doc))

	require.Len(t, doc.Files, 1)
	assert.Equal(t, "a.txt", doc.Files[0].NewPath)
	assert.Equal(t, 1, doc.Totals.Additions)
	assert.Len(t, doc.Files[0].Hunks[0].Lines, 3)
	assert.Nil(t, doc.Files[0].Hunks[0].Context)
}

func TestMCPServer_InMemoryTransport_CallParse_Errors(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty diff", map[string]any{"diff": ""}, "diff parameter is required"},
		{"relative repo", map[string]any{"diff": sampleDiff, "repo_path": "relative/dir"}, "absolute path"},
		{"missing repo", map[string]any{"diff": sampleDiff, "repo_path": "/nonexistent/diffcore/repo"}, "does not exist"},
		{"negative radius", map[string]any{"diff": sampleDiff, "radius": -1}, "radius"},
		{"strict", map[string]any{"diff": "diff --git a/f b/f\n@@ -1,2 +1,2 @@\n x\n?y\n", "strict": true}, "unexpected line"},
	}

	for _, tt := range tests {
		result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: mcp.ToolNameParse, Arguments: tt.args})
		require.NoError(t, err, tt.name)
		assert.True(t, result.IsError, tt.name)
		assert.Contains(t, textOf(t, result), tt.want, tt.name)
	}
}

func TestMCPServer_InMemoryTransport_CallVerify(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolNameVerify,
		Arguments: map[string]any{"diff": sampleDiff},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report mcp.VerifyReport
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &report))

	assert.Equal(t, mcp.VerifyReport{OK: true, Files: 1, Hunks: 1, Tokens: 4}, report)
}
