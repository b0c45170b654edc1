package gitlog

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// commitFile writes content to name and commits it with a fixed author time.
func commitFile(t *testing.T, repo *git.Repository, dir, name, content string, when time.Time) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: when}
	hash, err := wt.Commit("update "+name, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return hash.String()
}

func TestOpen_NotARepository(t *testing.T) {
	client := new(contract.MockGitClient)

	_, err := Open(context.Background(), client, t.TempDir(), "")
	assert.ErrorIs(t, err, contract.ErrRepositoryAccess)

	_, err = Open(context.Background(), client, filepath.Join(t.TempDir(), "missing"), "")
	assert.ErrorIs(t, err, contract.ErrRepositoryAccess)

	client.AssertNotCalled(t, "StreamCommitLog", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpen_SubdirectoryIsNotARoot(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	commitFile(t, repo, dir, "a.txt", "1\n", time.Now())

	_, err = Open(context.Background(), new(contract.MockGitClient), filepath.Join(dir, "pkg"), "")
	assert.ErrorIs(t, err, contract.ErrRepositoryAccess)
}

func TestOpen_EmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	client := new(contract.MockGitClient)

	s, err := Open(context.Background(), client, dir, "")
	require.NoError(t, err)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	client.AssertNotCalled(t, "StreamCommitLog", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpen_StreamsThroughClient(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "a.txt", "1\n", time.Now())

	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("StreamCommitLog", ctx, dir, "src/").
		Return(io.NopCloser(strings.NewReader("--x|2024-01-01T00:00:00Z\n4\t1\tsrc/a.go\n")), nil)

	s, err := NewOpener(client).Open(ctx, dir, "src/")
	require.NoError(t, err)
	require.True(t, s.Next())
	assert.Equal(t, int64(4), s.Delta().Inserted)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	client.AssertExpectations(t)
}

func TestOpen_StartFailure(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "a.txt", "1\n", time.Now())

	client := new(contract.MockGitClient)
	client.On("StreamCommitLog", mock.Anything, dir, "").Return(nil, errors.New("git not found"))

	_, err = Open(context.Background(), client, dir, "")
	assert.ErrorIs(t, err, contract.ErrRepositoryAccess)
}

func TestHeadRevisionAndCommitTime(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	_, ok, err := HeadRevision(dir)
	require.NoError(t, err)
	assert.False(t, ok, "empty repository has no head")

	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	commitFile(t, repo, dir, "a.txt", "1\n", first)
	second := commitFile(t, repo, dir, "a.txt", "1\n2\n", first.Add(48*time.Hour))

	head, ok, err := HeadRevision(dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, head)

	when, err := CommitTime(dir, head)
	require.NoError(t, err)
	assert.True(t, when.Equal(first.Add(48*time.Hour)))

	when, err = CommitTime(dir, "HEAD~1")
	require.NoError(t, err)
	assert.True(t, when.Equal(first))

	_, err = CommitTime(dir, "no-such-branch")
	assert.ErrorIs(t, err, contract.ErrRepositoryAccess)

	_, _, err = HeadRevision(t.TempDir())
	assert.ErrorIs(t, err, contract.ErrRepositoryAccess)
}

func TestOpen_LinkedWorktree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	commitFile(t, repo, dir, "a.txt", "1\n", first)
	second := commitFile(t, repo, dir, "a.txt", "1\n2\n3\n", first.Add(24*time.Hour))

	wt := filepath.Join(t.TempDir(), "feature")
	out, err := exec.Command("git", "-C", dir, "worktree", "add", "-b", "feature", wt).CombinedOutput()
	require.NoError(t, err, string(out))

	s, err := Open(context.Background(), contract.NewLocalGitClient(), wt, "")
	require.NoError(t, err)
	var deltas []schema.CommitDelta
	for s.Next() {
		deltas = append(deltas, s.Delta())
	}
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())
	require.Len(t, deltas, 2)
	assert.Equal(t, second, deltas[1].ID)
	assert.Equal(t, int64(2), deltas[1].Inserted)

	head, ok, err := HeadRevision(wt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, head)
}

func TestDelta(t *testing.T) {
	ctx := context.Background()

	t.Run("sums numstat lines", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetDiffNumstat", ctx, "/repo", "abc", "HEAD", "").
			Return([]byte("10\t2\ta.go\n-\t-\tlogo.png\n0\t3\tb.go\n"), nil)

		delta, err := Delta(ctx, client, "/repo", "", "abc", "")
		require.NoError(t, err)
		assert.Equal(t, schema.LineDelta{Inserted: 10, Deleted: 5}, delta)
	})

	t.Run("explicit target and filter", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetDiffNumstat", ctx, "/repo", "abc", "def", "src/").Return([]byte(""), nil)

		delta, err := Delta(ctx, client, "/repo", "src/", "abc", "def")
		require.NoError(t, err)
		assert.Equal(t, schema.LineDelta{}, delta)
		client.AssertExpectations(t)
	})

	t.Run("unknown revision", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetDiffNumstat", ctx, "/repo", "bad", "HEAD", "").Return(nil, errors.New("unknown revision"))

		_, err := Delta(ctx, client, "/repo", "", "bad", "")
		assert.ErrorIs(t, err, contract.ErrRepositoryAccess)
	})
}
