// Package config provides configuration loading and validation for diffcore.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidIDLength = errors.New("identity length out of range")
	ErrInvalidRadius   = errors.New("context radius must not be negative")
	ErrInvalidWorkers  = errors.New("context workers must be positive")
	ErrInvalidCache    = errors.New("invalid context cache size")
	ErrInvalidFormat   = errors.New("unsupported output format")
	ErrInvalidLevel    = errors.New("unsupported log level")
	ErrEmptyGitBinary  = errors.New("git binary must not be empty")
)

const (
	// EnvPrefix is prepended to every environment override, e.g. DIFFCORE_CONTEXT_RADIUS.
	EnvPrefix = "DIFFCORE"
	// FileName is the config file searched for when no explicit path is given.
	FileName = ".diffcore"

	minIDLength = 1
	maxIDLength = 43
)

var (
	outputFormats = []string{"json", "yaml"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Config holds all configuration for diffcore.
type Config struct {
	Identity IdentityConfig `mapstructure:"identity"`
	Parser   ParserConfig   `mapstructure:"parser"`
	Context  ContextConfig  `mapstructure:"context"`
	Git      GitConfig      `mapstructure:"git"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// IdentityConfig controls stable id generation.
type IdentityConfig struct {
	Length int `mapstructure:"length"`
}

// ParserConfig controls parser leniency.
type ParserConfig struct {
	Strict bool `mapstructure:"strict"`
}

// ContextConfig controls context enrichment.
type ContextConfig struct {
	BeforeRev string `mapstructure:"before_rev"`
	AfterRev  string `mapstructure:"after_rev"`
	Worktree  string `mapstructure:"worktree"`
	CacheSize string `mapstructure:"cache_size"`
	Radius    int    `mapstructure:"radius"`
	Workers   int    `mapstructure:"workers"`
	Enabled   bool   `mapstructure:"enabled"`
}

// CacheBytes returns CacheSize in bytes.
func (c ContextConfig) CacheBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.CacheSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidCache, c.CacheSize, err)
	}

	return int64(n), nil //nolint:gosec // sizes are far below MaxInt64.
}

// GitConfig locates the external diff tool.
type GitConfig struct {
	Binary   string   `mapstructure:"binary"`
	DiffArgs []string `mapstructure:"diff_args"`
}

// OutputConfig controls document encoding.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath, .diffcore.yaml is searched in the working
// directory and then $HOME; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(FileName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Identity: IdentityConfig{Length: DefaultIdentityLength},
		Context: ContextConfig{
			Enabled:   DefaultContextEnabled,
			Radius:    DefaultContextRadius,
			Workers:   DefaultContextWorkers,
			CacheSize: DefaultContextCacheSize,
			Worktree:  DefaultContextWorktree,
		},
		Git: GitConfig{
			Binary:   DefaultGitBinary,
			DiffArgs: slices.Clone(DefaultGitDiffArgs),
		},
		Output:  OutputConfig{Format: DefaultOutputFormat, Pretty: DefaultOutputPretty},
		Logging: LoggingConfig{Level: DefaultLoggingLevel, JSON: DefaultLoggingJSON},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("identity.length", DefaultIdentityLength)

	viperCfg.SetDefault("parser.strict", false)

	viperCfg.SetDefault("context.enabled", DefaultContextEnabled)
	viperCfg.SetDefault("context.radius", DefaultContextRadius)
	viperCfg.SetDefault("context.workers", DefaultContextWorkers)
	viperCfg.SetDefault("context.cache_size", DefaultContextCacheSize)
	viperCfg.SetDefault("context.before_rev", "")
	viperCfg.SetDefault("context.after_rev", "")
	viperCfg.SetDefault("context.worktree", DefaultContextWorktree)

	viperCfg.SetDefault("git.binary", DefaultGitBinary)
	viperCfg.SetDefault("git.diff_args", DefaultGitDiffArgs)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.pretty", DefaultOutputPretty)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)
}

// Validate checks a configuration assembled outside LoadConfig, such as one
// adjusted by command-line flags.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if config.Identity.Length < minIDLength || config.Identity.Length > maxIDLength {
		return fmt.Errorf("%w: %d", ErrInvalidIDLength, config.Identity.Length)
	}

	if config.Context.Radius < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, config.Context.Radius)
	}

	if config.Context.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Context.Workers)
	}

	if _, err := config.Context.CacheBytes(); err != nil {
		return err
	}

	if config.Git.Binary == "" {
		return ErrEmptyGitBinary
	}

	if !slices.Contains(outputFormats, strings.ToLower(config.Output.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, config.Output.Format)
	}

	if !slices.Contains(logLevels, strings.ToLower(config.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, config.Logging.Level)
	}

	return nil
}
