package config

// Identity defaults.
const (
	DefaultIdentityLength = 12
)

// Context enrichment defaults.
const (
	DefaultContextEnabled   = true
	DefaultContextRadius    = 20
	DefaultContextWorkers   = 8
	DefaultContextCacheSize = "64MB"
	DefaultContextWorktree  = "."
)

// Git defaults.
const (
	DefaultGitBinary = "git"
)

// DefaultGitDiffArgs are passed to the diff tool ahead of any revisions.
var DefaultGitDiffArgs = []string{"--no-color", "--no-ext-diff", "--full-index", "-M"}

// Output defaults.
const (
	DefaultOutputFormat = "json"
	DefaultOutputPretty = true
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)
