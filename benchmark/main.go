// Package main measures backfill throughput on real repositories.
// For each repository it times a full backfill into an empty store (cold),
// repeated backfills over the same store where every commit is already
// stored (warm), and an incremental sync. Results are written as CSV.
//
// Prerequisites:
// - git installed and available in PATH
// - Test repositories cloned to the specified base directory
// - Git repositories: csv-parser, fd, git, kubernetes
//
// Usage: go run ./benchmark [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/huangsam/codemonitor/core/backfill"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/gitlog"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/schema"
)

// BenchmarkResult holds the timings of one repository.
type BenchmarkResult struct {
	Repository string
	Commits    int64
	ColdTime   string
	WarmTime   string
	SyncTime   string
	Throughput string // commits per second of the cold run
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase  string
	Timeout   time.Duration
	BatchSize int
	WarmRuns  int
	TestRepos []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:  os.Args[1],
		Timeout:   10 * time.Minute,
		BatchSize: contract.DefaultBatchSize,
		WarmRuns:  3,
		TestRepos: []string{"csv-parser", "fd", "git", "kubernetes"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that git and the test repositories exist.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git binary not found in PATH")
	}
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

// runBenchmarks executes the suite for every configured repository.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, batch size %d, warm: %d runs\n",
		len(config.TestRepos), config.Timeout, config.BatchSize, config.WarmRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		result, err := runBenchmarkSuite(config, repo, filepath.Join(config.RepoBase, repo))
		if err != nil {
			fmt.Printf("  Failed: %v\n", err)
			result = BenchmarkResult{Repository: repo, ColdTime: "FAILED", WarmTime: "FAILED", SyncTime: "FAILED", Throughput: "-"}
		}
		results = append(results, result)
	}
	return results
}

// runBenchmarkSuite times cold, warm and sync runs against a fresh SQLite store.
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath string) (BenchmarkResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	dbDir, err := os.MkdirTemp("", "codemonitor-bench-*")
	if err != nil {
		return BenchmarkResult{}, err
	}
	defer func() { _ = os.RemoveAll(dbDir) }()

	store, err := iocache.NewStoreManager(schema.SQLiteBackend, filepath.Join(dbDir, "bench.db"))
	if err != nil {
		return BenchmarkResult{}, err
	}
	defer func() { _ = store.Close() }()

	client := contract.NewLocalGitClient()
	root, err := client.GetRepoRoot(ctx, repoPath)
	if err != nil {
		return BenchmarkResult{}, err
	}
	repoID, err := store.Repositories().Add(ctx, repo, root, "")
	if err != nil {
		return BenchmarkResult{}, err
	}

	engine := backfill.NewEngine(gitlog.NewOpener(client), store.History(), store.Repositories(),
		backfill.WithBatchSize(config.BatchSize))
	runOnce := func() (schema.BackfillTask, float64, error) {
		start := time.Now()
		id := engine.Submit(ctx, repoID, root, "")
		if err := engine.Wait(ctx); err != nil {
			return schema.BackfillTask{}, 0, err
		}
		task, err := engine.Status(id)
		if err != nil {
			return task, 0, err
		}
		if task.Status != schema.TaskCompleted {
			return task, 0, fmt.Errorf("backfill %s: %s", task.Status, task.Error)
		}
		return task, time.Since(start).Seconds(), nil
	}

	fmt.Printf("  Cold run\n")
	task, cold, err := runOnce()
	if err != nil {
		return BenchmarkResult{}, err
	}

	fmt.Printf("  Warm phase (%d runs)\n", config.WarmRuns)
	var warmSum float64
	for range config.WarmRuns {
		_, elapsed, err := runOnce()
		if err != nil {
			return BenchmarkResult{}, err
		}
		warmSum += elapsed
	}
	warmAvg := "-"
	if config.WarmRuns > 0 {
		warmAvg = fmt.Sprintf("%.3fs", warmSum/float64(config.WarmRuns))
	}

	registered, err := store.Repositories().Get(ctx, repoID)
	if err != nil {
		return BenchmarkResult{}, err
	}
	start := time.Now()
	if _, err := backfill.Resync(ctx, backfill.ResyncDeps{
		Client:   client,
		History:  store.History(),
		Registry: store.Repositories(),
	}, registered); err != nil {
		return BenchmarkResult{}, err
	}
	syncTime := time.Since(start).Seconds()

	throughput := "-"
	if cold > 0 {
		throughput = strconv.FormatFloat(float64(task.TotalCount)/cold, 'f', 0, 64)
	}
	fmt.Printf("  Commits: %d, Cold: %.3fs, Warm average: %s, Sync: %.3fs\n", task.TotalCount, cold, warmAvg, syncTime)

	return BenchmarkResult{
		Repository: repo,
		Commits:    task.TotalCount,
		ColdTime:   fmt.Sprintf("%.3fs", cold),
		WarmTime:   warmAvg,
		SyncTime:   fmt.Sprintf("%.3fs", syncTime),
		Throughput: throughput,
	}, nil
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("codemonitor_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"repo", "commits", "cold_time", "warm_avg", "sync_time", "commits_per_sec"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		record := []string{r.Repository, strconv.FormatInt(r.Commits, 10), r.ColdTime, r.WarmTime, r.SyncTime, r.Throughput}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-12s: %8d commits, Cold: %s, Warm: %s, Sync: %s (%s commits/s)\n",
			r.Repository, r.Commits, r.ColdTime, r.WarmTime, r.SyncTime, r.Throughput)
	}
}
