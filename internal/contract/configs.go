package contract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/codemonitor/schema"
)

// Default values for configuration.
const (
	DefaultBatchSize    = 500
	DefaultDays         = 30
	MaxDays             = 3650
	DefaultPollInterval = 500 * time.Millisecond
	DefaultClocPath     = "cloc"
)

// Config holds the runtime configuration for all commands.
// This struct is the "final, validated" config.
type Config struct {
	// Repository selection for repo add / baseline
	RepoPath    string
	RepoName    string
	IncludePath string

	// Repository names for stats; empty means all
	Repos []string
	Days  int

	BatchSize     int
	MaxConcurrent int
	PollInterval  time.Duration

	Output     schema.OutputMode
	OutputFile string
	UseColors  bool
	Width      int // table width override; zero means detect

	DBBackend     schema.DatabaseBackend
	DBConnect     string // Please use env var as this is plaintext
	TargetVersion int

	ClocPath    string
	LogLevel    slog.Level
	LogFile     string
	MetricsAddr string
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Clone returns a copy of the config that can be modified independently.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Repos = slices.Clone(c.Repos)
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	DBBackend  string `mapstructure:"db-backend"`
	DBConnect  string `mapstructure:"db-connect"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`
	LogLevel   string `mapstructure:"log-level"`
	LogFile    string `mapstructure:"log-file"`

	// --- Fields from backfill-related flags ---
	BatchSize     int    `mapstructure:"batch-size"`
	MaxConcurrent int    `mapstructure:"max-concurrent"`
	PollInterval  string `mapstructure:"poll-interval"`

	// --- Fields from repoAddCmd.Flags() ---
	Name    string `mapstructure:"name"`
	Include string `mapstructure:"include"`

	// --- Fields from statsCmd.Flags() ---
	Repos string `mapstructure:"repos"`
	Days  int    `mapstructure:"days"`

	// --- Fields from other subcommands ---
	ClocPath      string `mapstructure:"cloc-path"`
	MetricsAddr   string `mapstructure:"metrics-addr"`
	TargetVersion int    `mapstructure:"target-version"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. The git client is only consulted when
// a repository path was given.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if input.RepoPathStr == "" {
		return nil
	}
	return ResolveRepository(ctx, cfg, client, input.RepoPathStr)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a file prefix was given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ParseDatabaseBackend normalizes and validates a backend name.
func ParseDatabaseBackend(s string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if backend == "" {
		return schema.SQLiteBackend, nil
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid db backend '%s'. must be sqlite, mysql, postgresql", s)
	}
	return backend, nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}

// validateBackendConfig validates the database backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseDatabaseBackend(input.DBBackend)
	if err != nil {
		return err
	}
	cfg.DBBackend = backend
	cfg.DBConnect = input.DBConnect
	cfg.TargetVersion = input.TargetVersion
	return ValidateDatabaseConnectionString(cfg.DBBackend, cfg.DBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.RepoName = strings.TrimSpace(input.Name)
	cfg.IncludePath = strings.TrimSpace(input.Include)
	cfg.LogFile = input.LogFile
	cfg.MetricsAddr = input.MetricsAddr
	cfg.ClocPath = input.ClocPath
	if cfg.ClocPath == "" {
		cfg.ClocPath = DefaultClocPath
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	// --- 1. Backfill tuning ---
	if input.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0 (received %d)", input.BatchSize)
	}
	cfg.BatchSize = input.BatchSize

	if input.MaxConcurrent < 0 {
		return fmt.Errorf("max-concurrent cannot be negative (received %d)", input.MaxConcurrent)
	}
	cfg.MaxConcurrent = input.MaxConcurrent

	cfg.PollInterval = DefaultPollInterval
	if input.PollInterval != "" {
		d, err := time.ParseDuration(input.PollInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid poll-interval '%s'. use a positive duration like 500ms or 2s", input.PollInterval)
		}
		cfg.PollInterval = d
	}

	// --- 2. Stats window ---
	if input.Days <= 0 || input.Days > MaxDays {
		return fmt.Errorf("days must be greater than 0 and cannot exceed %d (received %d)", MaxDays, input.Days)
	}
	cfg.Days = input.Days

	cfg.Repos = nil
	if input.Repos != "" && !strings.EqualFold(input.Repos, "all") {
		for p := range strings.SplitSeq(input.Repos, ",") {
			if name := strings.TrimSpace(p); name != "" {
				cfg.Repos = append(cfg.Repos, name)
			}
		}
	}

	// --- 3. Output Validation ---
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	return nil
}

// ResolveRepository resolves the Git repository root containing searchPath into
// cfg.RepoPath. It defaults cfg.RepoName to the root's base name and, unless
// cfg.IncludePath is already set, restricts counting to searchPath when it is
// a subdirectory of the root.
func ResolveRepository(ctx context.Context, cfg *Config, client GitClient, searchPath string) error {
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	if statErr != nil {
		return fmt.Errorf("%w: %w", ErrRepositoryAccess, statErr)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRepositoryAccess, absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, absSearchPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
	}
	cfg.RepoPath = gitRoot

	if cfg.RepoName == "" {
		cfg.RepoName = filepath.Base(gitRoot)
	}

	if cfg.IncludePath != "" { // User-provided --include flag takes precedence
		return nil
	}

	if absSearchPath != gitRoot {
		relativePath, err := filepath.Rel(gitRoot, absSearchPath)
		if err != nil {
			return err
		}
		if relativePath != "." {
			cfg.IncludePath = strings.ReplaceAll(relativePath, string(os.PathSeparator), "/") + "/"
		}
	}

	return nil
}
