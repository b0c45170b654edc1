package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/huangsam/codemonitor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTaskLabel(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	for _, status := range []schema.TaskStatus{schema.TaskPending, schema.TaskRunning, schema.TaskCompleted, schema.TaskFailed} {
		assert.Equal(t, string(status), GetTaskLabel(status))
	}
}

func TestGetRepoLabel(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	for _, status := range []schema.RepoStatus{schema.RepoIdle, schema.RepoBackfilling, schema.RepoError} {
		assert.Equal(t, string(status), GetRepoLabel(status))
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path selects stdout", func(t *testing.T) {
		f, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, f)
	})

	t.Run("path creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		f, err := SelectOutputFile(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		assert.FileExists(t, path)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		_, err := SelectOutputFile(filepath.Join(t.TempDir(), "missing", "out.csv"))
		assert.Error(t, err)
	})
}

func TestGetDBFilePath(t *testing.T) {
	path := GetDBFilePath()
	assert.True(t, strings.HasSuffix(path, ".codemonitor.db"))
}

func TestParseBoolString(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"", false, true},
		{"maybe", false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseBoolString(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr text handler", func(t *testing.T) {
		logger, closer, err := NewLogger(0, "")
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.NoError(t, closer())
	})

	t.Run("json file handler", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "codemonitor.log")
		logger, closer, err := NewLogger(0, path)
		require.NoError(t, err)
		logger.Info("backfill started", "repo_id", 7)
		require.NoError(t, closer())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"backfill started"`)
		assert.Contains(t, string(data), `"repo_id":7`)
	})
}
