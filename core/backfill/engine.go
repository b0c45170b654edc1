// Package backfill rebuilds a repository's code-size history in the background
// and keeps it current afterwards.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/codemonitor/core/loc"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize sets how many snapshots are buffered per store write.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxConcurrent caps how many tasks run at once. Tasks over the cap stay
// PENDING until a slot frees up. Zero means no cap.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithLogger sets the logger used for task lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers a receiver for task lifecycle events.
func WithObserver(observer contract.BackfillObserver) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine runs backfill tasks and tracks their state in memory. Task state does
// not survive a restart; the stored history does.
type Engine struct {
	opener    contract.CommitStreamOpener
	history   contract.HistoryStore
	registry  contract.RepoStatusWriter
	batchSize int
	slots     *semaphore.Weighted
	logger    *slog.Logger
	observer  contract.BackfillObserver
	now       func() time.Time

	mu        sync.RWMutex
	tasks     map[string]*taskEntry
	order     []string
	repoLocks map[int64]*sync.Mutex

	group errgroup.Group
}

// NewEngine creates an engine that reads commits through opener, writes
// snapshots to history and reports repository status to registry.
func NewEngine(opener contract.CommitStreamOpener, history contract.HistoryStore, registry contract.RepoStatusWriter, opts ...Option) *Engine {
	e := &Engine{
		opener:    opener,
		history:   history,
		registry:  registry,
		batchSize: contract.DefaultBatchSize,
		logger:    contract.DiscardLogger(),
		observer:  contract.NopObserver{},
		now:       time.Now,
		tasks:     make(map[string]*taskEntry),
		repoLocks: make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit registers a PENDING task and starts it in the background. It never
// blocks and never fails; problems with the repository surface through Status.
// Tasks for the same repository run one after another in the background.
func (e *Engine) Submit(ctx context.Context, repoID int64, repoPath, pathFilter string) string {
	id := uuid.NewString()
	entry := &taskEntry{task: schema.BackfillTask{
		ID:          id,
		RepoID:      repoID,
		RepoPath:    repoPath,
		PathFilter:  pathFilter,
		Status:      schema.TaskPending,
		SubmittedAt: e.now(),
	}}

	e.mu.Lock()
	e.tasks[id] = entry
	e.order = append(e.order, id)
	e.mu.Unlock()

	e.observer.TaskSubmitted()
	e.logger.Debug("backfill submitted", "task_id", id, "repo_id", repoID)

	runCtx := context.WithoutCancel(ctx)
	e.group.Go(func() error {
		e.execute(runCtx, entry)
		return nil
	})
	return id
}

// Status returns a snapshot of a task.
func (e *Engine) Status(taskID string) (schema.BackfillTask, error) {
	e.mu.RLock()
	entry, ok := e.tasks[taskID]
	e.mu.RUnlock()
	if !ok {
		return schema.BackfillTask{}, fmt.Errorf("%w: %s", contract.ErrTaskNotFound, taskID)
	}
	return entry.snapshot(), nil
}

// List returns snapshots of all known tasks ordered by start time. Tasks that
// have not started yet come last, in submission order.
func (e *Engine) List() []schema.BackfillTask {
	e.mu.RLock()
	entries := make([]*taskEntry, 0, len(e.order))
	for _, id := range e.order {
		entries = append(entries, e.tasks[id])
	}
	e.mu.RUnlock()

	out := make([]schema.BackfillTask, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.snapshot())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartedAt, out[j].StartedAt
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.Before(*b)
	})
	return out
}

// Wait blocks until every submitted task has reached a terminal state or ctx
// is done.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = e.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// repoLock returns the mutex that serializes tasks of one repository.
func (e *Engine) repoLock(repoID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.repoLocks[repoID]
	if !ok {
		lock = &sync.Mutex{}
		e.repoLocks[repoID] = lock
	}
	return lock
}

func (e *Engine) execute(ctx context.Context, entry *taskEntry) {
	// Taken before a slot so a queued task does not hold one while it waits.
	lock := e.repoLock(entry.repoID())
	lock.Lock()
	defer lock.Unlock()

	if e.slots != nil {
		// ctx is detached from the caller, so Acquire only returns once a slot frees.
		_ = e.slots.Acquire(ctx, 1)
		defer e.slots.Release(1)
	}

	started := e.now()
	task := entry.begin(started)
	log := e.logger.With("task_id", task.ID, "repo_id", task.RepoID)
	log.Info("backfill started", "path", task.RepoPath, "filter", task.PathFilter)
	e.observer.TaskStarted()

	e.bestEffort(log, "mark repository backfilling", func() error {
		return e.registry.SetStatus(ctx, task.RepoID, schema.RepoBackfilling)
	})

	processed, err := e.consume(ctx, entry, task)
	finished := e.now()

	if err != nil {
		log.Error("backfill failed", "error", err, "processed", processed)
		e.bestEffort(log, "mark repository error", func() error {
			return e.registry.SetStatus(ctx, task.RepoID, schema.RepoError)
		})
		entry.fail(err, finished)
		e.observer.TaskFinished(schema.TaskFailed, finished.Sub(started))
		return
	}

	e.bestEffort(log, "mark repository idle", func() error {
		return e.registry.SetStatus(ctx, task.RepoID, schema.RepoIdle)
	})
	e.bestEffort(log, "record last scan", func() error {
		return e.registry.SetLastScanned(ctx, task.RepoID, finished)
	})
	entry.complete(processed, finished)
	log.Info("backfill completed", "commits", processed, "elapsed", finished.Sub(started))
	e.observer.TaskFinished(schema.TaskCompleted, finished.Sub(started))
}

// consume streams the repository history into the store and returns the
// number of commits flushed. A panic becomes an error.
func (e *Engine) consume(ctx context.Context, entry *taskEntry, task schema.BackfillTask) (processed int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backfill panicked: %v", r)
		}
	}()

	stream, err := e.opener.Open(ctx, task.RepoPath, task.PathFilter)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stream.Close() }()

	acc := loc.New(0)
	batch := make([]schema.LOCSnapshot, 0, e.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		begin := time.Now()
		if _, err := e.history.AppendBatch(ctx, task.RepoID, batch); err != nil {
			return err
		}
		e.observer.BatchFlushed(len(batch), time.Since(begin))
		e.observer.CommitsProcessed(len(batch))
		processed += int64(len(batch))
		entry.progress(processed)
		// the store may keep the slice, so start a fresh one
		batch = make([]schema.LOCSnapshot, 0, e.batchSize)
		return nil
	}

	for stream.Next() {
		batch = append(batch, acc.Apply(stream.Delta()))
		if len(batch) >= e.batchSize {
			if err := flush(); err != nil {
				return processed, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return processed, err
	}
	if err := flush(); err != nil {
		return processed, err
	}
	return processed, nil
}

// bestEffort runs a secondary side effect. Its failure is logged and never
// changes the task outcome.
func (e *Engine) bestEffort(log *slog.Logger, what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("best-effort step panicked", "step", what, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		log.Warn("best-effort step failed", "step", what, "error", err)
	}
}
