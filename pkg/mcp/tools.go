package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameParse  = "diff_parse"
	ToolNameVerify = "diff_verify"
)

// Input size limits.
const (
	// MaxDiffInputBytes is the maximum allowed size for inline diff input (16 MB).
	MaxDiffInputBytes = 16 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyDiff indicates the diff parameter is empty.
	ErrEmptyDiff = errors.New("diff parameter is required and must not be empty")
	// ErrDiffTooLarge indicates the diff input exceeds the size limit.
	ErrDiffTooLarge = errors.New("diff input exceeds maximum size")
	// ErrRepoPathNotAbsolute indicates the repo_path is not an absolute path.
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	// ErrRepoNotFound indicates the repository path does not exist.
	ErrRepoNotFound = errors.New("repository path does not exist")
	// ErrInvalidRadius indicates a negative context radius.
	ErrInvalidRadius = errors.New("radius must not be negative")
)

// Input types (auto-generate JSON schemas via struct tags).

// ParseInput is the input schema for the diff_parse tool.
type ParseInput struct {
	Diff     string `json:"diff"                jsonschema:"unified diff text, as printed by git diff"`
	RepoPath string `json:"repo_path,omitempty" jsonschema:"optional absolute path to the repository the diff came from; enables context lines"`
	Radius   *int   `json:"radius,omitempty"    jsonschema:"context lines around each hunk when repo_path is set (default: 20; 0 disables context)"`
	Strict   bool   `json:"strict,omitempty"    jsonschema:"reject unexpected lines inside hunks instead of treating them as context"`
}

// VerifyInput is the input schema for the diff_verify tool.
type VerifyInput struct {
	Diff string `json:"diff" jsonschema:"unified diff text to parse and check"`
}

// VerifyReport is the result of the diff_verify tool.
type VerifyReport struct {
	OK       bool   `json:"ok"`
	Files    int    `json:"files"`
	Hunks    int    `json:"hunks"`
	Tokens   int    `json:"tokens"`
	Mismatch string `json:"mismatch,omitempty"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateDiffInput checks common diff input constraints.
func validateDiffInput(diff string) error {
	if diff == "" {
		return ErrEmptyDiff
	}

	if len(diff) > MaxDiffInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrDiffTooLarge, len(diff), MaxDiffInputBytes)
	}

	return nil
}

func validateRepoPath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrRepoPathNotAbsolute, path)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, path)
	}

	return nil
}
