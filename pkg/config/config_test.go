package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/diffcore/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".diffcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.DefaultIdentityLength, cfg.Identity.Length)
	assert.False(t, cfg.Parser.Strict)
	assert.True(t, cfg.Context.Enabled)
	assert.Equal(t, config.DefaultContextRadius, cfg.Context.Radius)
	assert.Equal(t, config.DefaultGitDiffArgs, cfg.Git.DiffArgs)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
identity:
  length: 16
parser:
  strict: true
context:
  radius: 5
  workers: 2
  cache_size: "1MiB"
  before_rev: "HEAD~1"
  after_rev: "HEAD"
git:
  binary: /usr/bin/git
  diff_args: ["--no-color"]
output:
  format: yaml
  pretty: false
logging:
  level: debug
  json: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Identity.Length)
	assert.True(t, cfg.Parser.Strict)
	assert.Equal(t, 5, cfg.Context.Radius)
	assert.Equal(t, 2, cfg.Context.Workers)
	assert.Equal(t, "HEAD~1", cfg.Context.BeforeRev)
	assert.Equal(t, "HEAD", cfg.Context.AfterRev)
	assert.Equal(t, "/usr/bin/git", cfg.Git.Binary)
	assert.Equal(t, []string{"--no-color"}, cfg.Git.DiffArgs)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.False(t, cfg.Output.Pretty)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)

	size, err := cfg.Context.CacheBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), size)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "context:\n  radius: 5\n")

	t.Setenv("DIFFCORE_CONTEXT_RADIUS", "7")
	t.Setenv("DIFFCORE_PARSER_STRICT", "true")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Context.Radius)
	assert.True(t, cfg.Parser.Strict)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "identity: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"zero id length", "identity:\n  length: 0\n", config.ErrInvalidIDLength},
		{"long id length", "identity:\n  length: 44\n", config.ErrInvalidIDLength},
		{"negative radius", "context:\n  radius: -1\n", config.ErrInvalidRadius},
		{"zero workers", "context:\n  workers: 0\n", config.ErrInvalidWorkers},
		{"bad cache size", "context:\n  cache_size: lots\n", config.ErrInvalidCache},
		{"empty git", "git:\n  binary: \"\"\n", config.ErrEmptyGitBinary},
		{"bad format", "output:\n  format: xml\n", config.ErrInvalidFormat},
		{"bad level", "logging:\n  level: loud\n", config.ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_ValidateAfterOverride(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.Context.Radius = 0
	require.NoError(t, cfg.Validate())

	cfg.Output.Format = "toml"
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidFormat)
}
