package backfill

import (
	"sync"
	"time"

	"github.com/huangsam/codemonitor/schema"
)

// taskEntry is one task's state behind its own lock, so that pollers of one
// task never contend with another task's progress updates.
type taskEntry struct {
	mu   sync.Mutex
	task schema.BackfillTask
}

// repoID is fixed at submission.
func (t *taskEntry) repoID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.task.RepoID
}

// begin moves the task to RUNNING and returns a copy of it.
func (t *taskEntry) begin(at time.Time) schema.BackfillTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.task.Status = schema.TaskRunning
	t.task.StartedAt = &at
	return t.task
}

// progress publishes the cumulative number of flushed commits.
func (t *taskEntry) progress(processed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if processed > t.task.ProcessedCount {
		t.task.ProcessedCount = processed
	}
}

func (t *taskEntry) complete(processed int64, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.task.Status = schema.TaskCompleted
	t.task.ProcessedCount = processed
	t.task.TotalCount = processed
	t.task.CompletedAt = &at
}

func (t *taskEntry) fail(err error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.task.Status = schema.TaskFailed
	t.task.Error = err.Error()
	if t.task.Error == "" {
		t.task.Error = "backfill failed"
	}
	t.task.CompletedAt = &at
}

// snapshot copies the task, including the values behind its time pointers.
func (t *taskEntry) snapshot() schema.BackfillTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.task
	if t.task.StartedAt != nil {
		started := *t.task.StartedAt
		out.StartedAt = &started
	}
	if t.task.CompletedAt != nil {
		completed := *t.task.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
