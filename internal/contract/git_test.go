package contract

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// gitIn runs a git command inside dir with a fixed identity.
func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=tester", "GIT_AUTHOR_EMAIL=tester@example.com",
		"GIT_COMMITTER_NAME=tester", "GIT_COMMITTER_EMAIL=tester@example.com",
		"GIT_AUTHOR_DATE=2024-01-01T10:00:00Z", "GIT_COMMITTER_DATE=2024-01-01T10:00:00Z",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

// newTestRepo creates a repository with two commits touching a.txt.
func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gitIn(t, dir, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1\n2\n3\n"), 0o644))
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "-q", "-m", "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1\n2\n"), 0o644))
	gitIn(t, dir, "commit", "-q", "-am", "second")
	return dir
}

// TestMockGitClient_Run ensures the mock records and returns programmed values.
func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	expectedErr := errors.New("mocked git error")

	mockClient.On("Run", ctx, "/path/to/repo", "rev-parse", "HEAD").
		Return([]byte("a1b2c3d"), expectedErr).
		Once()

	out, err := mockClient.Run(ctx, "/path/to/repo", "rev-parse", "HEAD")

	assert.Equal(t, []byte("a1b2c3d"), out)
	assert.Equal(t, expectedErr, err)
	mockClient.AssertExpectations(t)
}

func TestCommitLogArgs(t *testing.T) {
	args := CommitLogArgs("")
	assert.Equal(t, []string{"log", "--reverse", "--topo-order", "--numstat", "--pretty=format:--%H|%aI"}, args)

	filtered := CommitLogArgs("src/")
	assert.Equal(t, []string{"--", "src/"}, filtered[len(filtered)-2:])
}

// TestNewLocalGitClient tests the constructor for LocalGitClient.
func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client, "NewLocalGitClient should return a non-nil client")
	assert.IsType(t, &LocalGitClient{}, client, "NewLocalGitClient should return a LocalGitClient instance")
}

func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repo := newTestRepo(t)

	tests := []struct {
		name        string
		repoPath    string
		args        []string
		expectError bool
	}{
		{name: "valid command", repoPath: repo, args: []string{"rev-parse", "HEAD"}},
		{name: "invalid repo path", repoPath: "/nonexistent/path", args: []string{"status"}, expectError: true},
		{name: "invalid git command", repoPath: repo, args: []string{"invalid-command"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Run(ctx, tt.repoPath, tt.args...)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalGitClient_GetRepoRoot(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repo := newTestRepo(t)

	root, err := client.GetRepoRoot(ctx, repo)
	require.NoError(t, err)
	assert.NotEmpty(t, root)

	_, err = client.GetRepoRoot(ctx, "/nonexistent/path")
	assert.Error(t, err)
}

func TestLocalGitClient_StreamCommitLog(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("reads full log", func(t *testing.T) {
		rc, err := client.StreamCommitLog(ctx, repo, "")
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		text := string(data)
		headers := 0
		for line := range strings.SplitSeq(text, "\n") {
			if strings.HasPrefix(line, LogHeaderPrefix) {
				headers++
			}
		}
		assert.Equal(t, 2, headers)
		assert.Contains(t, text, "3\t0\ta.txt")
		assert.Contains(t, text, "0\t1\ta.txt")
		// oldest commit first
		assert.Less(t, strings.Index(text, "3\t0\ta.txt"), strings.Index(text, "0\t1\ta.txt"))
	})

	t.Run("close before eof", func(t *testing.T) {
		rc, err := client.StreamCommitLog(ctx, repo, "")
		require.NoError(t, err)
		assert.NoError(t, rc.Close())
		assert.NoError(t, rc.Close())
	})

	t.Run("non-repository reports exit failure on close", func(t *testing.T) {
		rc, err := client.StreamCommitLog(ctx, t.TempDir(), "")
		require.NoError(t, err)
		_, _ = io.ReadAll(rc)
		assert.Error(t, rc.Close())
	})
}

func TestLocalGitClient_GetDiffNumstat(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repo := newTestRepo(t)

	out, err := client.GetDiffNumstat(ctx, repo, "HEAD~1", "HEAD", "")
	require.NoError(t, err)
	assert.Equal(t, "0\t1\ta.txt", strings.TrimSpace(string(out)))

	out, err = client.GetDiffNumstat(ctx, repo, "HEAD~1", "HEAD", "docs/")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(out)))

	_, err = client.GetDiffNumstat(ctx, repo, "not-a-ref", "HEAD", "")
	assert.Error(t, err)
}
