package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/codemonitor/core/backfill"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/gitlog"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// gitClient runs git for every command that touches a repository.
var gitClient contract.GitClient = contract.NewLocalGitClient()

// logger is built from --log-level and --log-file during setup.
var logger = contract.DiscardLogger()

// closeLogger releases the log file, if any.
var closeLogger = func() error { return nil }

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "codemonitor",
	Short:              "Track how a repository's lines of code change over its history.",
	Long:               `CodeMonitor replays Git history as line deltas to build a lines-of-code curve per repository, without recounting the tree at every commit.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".codemonitor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("CODEMONITOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("batch-size", contract.DefaultBatchSize)
	viper.SetDefault("max-concurrent", 0)
	viper.SetDefault("poll-interval", contract.DefaultPollInterval.String())
	viper.SetDefault("days", contract.DefaultDays)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("db-backend", schema.SQLiteBackend)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("log-level", "warn")
	viper.SetDefault("cloc-path", contract.DefaultClocPath)
	viper.SetDefault("target-version", -1)
}

// readConfigFile merges the config file into viper. A missing file is fine.
func readConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the store.
// repoPath is only set by commands that take a repository directory.
func sharedSetup(ctx context.Context, repoPath string) error {
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := readConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.RepoPathStr = repoPath

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(ctx, cfg, gitClient, input); err != nil {
		return err
	}
	color.NoColor = !cfg.UseColors

	l, closer, err := contract.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	logger, closeLogger = l, closer

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStore(cfg.DBBackend, cfg.DBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	logger.Debug("store ready", "backend", cfg.DBBackend)
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(_ *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, "")
}

// newEngine builds a backfill engine over the global store.
func newEngine(observer contract.BackfillObserver) *backfill.Engine {
	return backfill.NewEngine(
		gitlog.NewOpener(gitClient),
		iocache.Manager.History(),
		iocache.Manager.Repositories(),
		backfill.WithBatchSize(cfg.BatchSize),
		backfill.WithMaxConcurrent(cfg.MaxConcurrent),
		backfill.WithLogger(logger),
		backfill.WithObserver(observer),
	)
}

// resyncDeps wires an incremental resync to the global store.
func resyncDeps() backfill.ResyncDeps {
	return backfill.ResyncDeps{
		Client:   gitClient,
		History:  iocache.Manager.History(),
		Registry: iocache.Manager.Repositories(),
		Logger:   logger,
	}
}

// lookupRepository finds a registered repository by name.
func lookupRepository(ctx context.Context, name string) (schema.Repository, error) {
	repo, err := iocache.Manager.Repositories().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, contract.ErrRepositoryNotFound) {
			return repo, fmt.Errorf("%w. Run 'codemonitor repo list' to see registered names", err)
		}
		return repo, err
	}
	return repo, nil
}

// commandLogger tags log records with the running subcommand.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	return logger.With("command", cmd.CommandPath())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(rootCtx)
}

// Shutdown stops profiling and closes the log file. Call it once on exit.
func Shutdown() {
	if err := stopProfiling(); err != nil {
		contract.LogWarn("Failed to stop profiling", err)
	}
	if err := closeLogger(); err != nil {
		contract.LogWarn("Failed to close log file", err)
	}
}
