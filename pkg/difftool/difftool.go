// Package difftool runs the external diff producer and returns its output.
package difftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
)

// DefaultBinary is the diff producer looked up on PATH.
const DefaultBinary = "git"

// DefaultArgs request a colorless, full-index diff with rename detection.
var DefaultArgs = []string{"--no-color", "--no-ext-diff", "--full-index", "-M"}

// ErrToolFailed is the sentinel wrapped by *ToolError.
var ErrToolFailed = errors.New("diff tool failed")

// ToolError reports a non-zero exit or a failure to start the tool.
type ToolError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with code %d", ErrToolFailed, e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runner invokes "<binary> diff <args...>" in a directory.
type Runner struct {
	binary string
	args   []string
	dir    string
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the tool binary.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithArgs replaces the default flags placed before caller arguments.
func WithArgs(args []string) Option {
	return func(r *Runner) {
		r.args = slices.Clone(args)
	}
}

// WithDir sets the working directory of the tool.
func WithDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		binary: DefaultBinary,
		args:   slices.Clone(DefaultArgs),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Command returns the argument vector Diff would run.
func (r *Runner) Command(args ...string) []string {
	argv := make([]string, 0, 2+len(r.args)+len(args))
	argv = append(argv, r.binary, "diff")
	argv = append(argv, r.args...)

	return append(argv, args...)
}

// Diff runs the tool and returns its standard output. Any non-zero exit is
// returned as a *ToolError carrying the tool's stderr.
func (r *Runner) Diff(ctx context.Context, args ...string) (string, error) {
	argv := r.Command(args...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.DebugContext(ctx, "running diff tool", slog.String("command", strings.Join(argv, " ")), slog.String("dir", r.dir))

	err := cmd.Run()
	if err != nil {
		toolErr := &ToolError{
			Command:  strings.Join(argv, " "),
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}

		return "", toolErr
	}

	return stdout.String(), nil
}
