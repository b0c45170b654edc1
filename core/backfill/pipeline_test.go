package backfill

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/gitlog"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_BackfillRealRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
	ctx := context.Background()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	day := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"1\n2\n3\n", "1\n2\n3\n4\n5\n", "1\n"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(content), 0o644))
		_, err := wt.Add("a.txt")
		require.NoError(t, err)
		sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: day.Add(time.Duration(i) * 24 * time.Hour)}
		_, err = wt.Commit("step", &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
	}

	mgr, err := iocache.NewStoreManager(schema.SQLiteBackend, filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	defer func() { _ = mgr.Close() }()
	repoID, err := mgr.Repositories().Add(ctx, "sample", dir, "")
	require.NoError(t, err)

	e := NewEngine(gitlog.NewOpener(contract.NewLocalGitClient()), mgr.History(), mgr.Repositories(), WithBatchSize(2))
	task := waitTerminal(t, e, e.Submit(ctx, repoID, dir, ""))
	require.Equal(t, schema.TaskCompleted, task.Status, task.Error)
	assert.Equal(t, int64(3), task.TotalCount)

	points, err := mgr.History().QueryRange(ctx, []int64{repoID}, day.Add(-24*time.Hour), day.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int64{3, 5, 1}, []int64{points[0].TotalLOC, points[1].TotalLOC, points[2].TotalLOC})

	stored, err := mgr.Repositories().Get(ctx, repoID)
	require.NoError(t, err)
	assert.Equal(t, schema.RepoIdle, stored.Status)
	assert.NotNil(t, stored.LastScannedAt)

	// resubmitting is safe: nothing is stored twice
	again := waitTerminal(t, e, e.Submit(ctx, repoID, dir, ""))
	assert.Equal(t, schema.TaskCompleted, again.Status)
	count, err := mgr.History().Count(ctx, repoID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// a path that is not a repository fails the task, not the submission
	bad := waitTerminal(t, e, e.Submit(ctx, repoID, t.TempDir(), ""))
	assert.Equal(t, schema.TaskFailed, bad.Status)
	assert.Contains(t, bad.Error, "repository access failed")
	stored, err = mgr.Repositories().Get(ctx, repoID)
	require.NoError(t, err)
	assert.Equal(t, schema.RepoError, stored.Status)
}
