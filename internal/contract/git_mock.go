package contract

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockGitClient is a testify mock for the GitClient interface.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// StreamCommitLog implements the GitClient interface.
func (m *MockGitClient) StreamCommitLog(ctx context.Context, repoPath string, pathFilter string) (io.ReadCloser, error) {
	ret := m.Called(ctx, repoPath, pathFilter)
	rc, _ := ret.Get(0).(io.ReadCloser)
	return rc, ret.Error(1)
}

// GetDiffNumstat implements the GitClient interface.
func (m *MockGitClient) GetDiffNumstat(ctx context.Context, repoPath string, baseRef string, targetRef string, pathFilter string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, baseRef, targetRef, pathFilter)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	root, _ := ret.Get(0).(string)
	return root, ret.Error(1)
}
