// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"io"
	"time"

	"github.com/huangsam/codemonitor/schema"
)

// GitClient defines the git operations needed to rebuild code-size history.
// This allows the stream and resync logic to be tested without a real git executable.
type GitClient interface {
	// Run executes a git command and returns its standard output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// StreamCommitLog starts a chronological, numstat-annotated commit log and
	// returns its output as it is produced. Closing the reader reaps the process
	// and reports a non-zero exit as an error.
	StreamCommitLog(ctx context.Context, repoPath string, pathFilter string) (io.ReadCloser, error)

	// GetDiffNumstat returns per-file numstat lines between two revisions.
	GetDiffNumstat(ctx context.Context, repoPath string, baseRef string, targetRef string, pathFilter string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)
}

// CommitStream is a forward-only sequence of commit deltas, oldest first.
// It is consumed once, scanner style.
type CommitStream interface {
	Next() bool
	Delta() schema.CommitDelta
	Err() error
	Close() error
}

// CommitStreamOpener opens a commit stream for a repository.
type CommitStreamOpener interface {
	Open(ctx context.Context, repoPath string, pathFilter string) (CommitStream, error)
}

// HistoryStore persists LOC snapshots and answers day-bucketed range queries.
type HistoryStore interface {
	// AppendBatch stores snapshots atomically. Snapshots whose commit is already
	// stored for the repository are skipped. It returns the number inserted.
	AppendBatch(ctx context.Context, repoID int64, snapshots []schema.LOCSnapshot) (int, error)

	// QueryRange returns the latest record per repository per calendar day
	// within [start, end], ordered by repository then timestamp.
	QueryRange(ctx context.Context, repoIDs []int64, start, end time.Time) ([]schema.HistoryPoint, error)

	// Latest returns the most recently stored record of a repository.
	Latest(ctx context.Context, repoID int64) (schema.HistoryRecord, bool, error)

	// Count returns the number of records stored for a repository.
	Count(ctx context.Context, repoID int64) (int64, error)

	// All returns every stored record ordered by repository and id.
	All(ctx context.Context) ([]schema.HistoryRecord, error)

	// DeleteRepository removes every record of a repository.
	DeleteRepository(ctx context.Context, repoID int64) error
}

// RepoStatusWriter updates the scan bookkeeping of a repository.
type RepoStatusWriter interface {
	SetStatus(ctx context.Context, repoID int64, status schema.RepoStatus) error
	SetLastScanned(ctx context.Context, repoID int64, at time.Time) error
}

// RepositoryRegistry tracks the repositories being monitored.
type RepositoryRegistry interface {
	RepoStatusWriter

	// Add registers a repository and returns its id. Adding a name that is
	// already registered returns the existing id.
	Add(ctx context.Context, name, path, includePath string) (int64, error)
	Get(ctx context.Context, repoID int64) (schema.Repository, error)
	GetByName(ctx context.Context, name string) (schema.Repository, error)
	List(ctx context.Context) ([]schema.Repository, error)
	Remove(ctx context.Context, repoID int64) error
}

// SettingsStore is a small key-value store for user preferences.
type SettingsStore interface {
	Get(ctx context.Context, key, fallback string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// StoreManager owns the database connection shared by all stores.
type StoreManager interface {
	History() HistoryStore
	Repositories() RepositoryRegistry
	Settings() SettingsStore
	Status(ctx context.Context) (schema.StoreStatus, error)
	Close() error
}

// LineCounter produces a point-in-time line count of a working tree.
type LineCounter interface {
	Available(ctx context.Context) bool
	Count(ctx context.Context, dir string) (schema.LOCCount, error)
}

// BackfillObserver receives lifecycle events from the backfill engine.
type BackfillObserver interface {
	TaskSubmitted()
	TaskStarted()
	CommitsProcessed(n int)
	BatchFlushed(size int, elapsed time.Duration)
	TaskFinished(status schema.TaskStatus, elapsed time.Duration)
}

// NopObserver ignores all backfill events.
type NopObserver struct{}

var _ BackfillObserver = NopObserver{} // Compile-time check

func (NopObserver) TaskSubmitted()                                {}
func (NopObserver) TaskStarted()                                  {}
func (NopObserver) CommitsProcessed(int)                          {}
func (NopObserver) BatchFlushed(int, time.Duration)               {}
func (NopObserver) TaskFinished(schema.TaskStatus, time.Duration) {}
