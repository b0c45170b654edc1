package contract

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/codemonitor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input carrying the defaults viper would provide.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		DBBackend: string(schema.SQLiteBackend),
		Output:    string(schema.TextOut),
		Color:     "yes",
		BatchSize: DefaultBatchSize,
		Days:      DefaultDays,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", modify: func(*ConfigRawInput) {}},
		{name: "invalid backend", modify: func(in *ConfigRawInput) { in.DBBackend = "oracle" }, expectError: "invalid db backend"},
		{name: "mysql without connection", modify: func(in *ConfigRawInput) { in.DBBackend = "mysql" }, expectError: "db-connect is required"},
		{name: "postgres without dbname", modify: func(in *ConfigRawInput) {
			in.DBBackend = "postgresql"
			in.DBConnect = "host=localhost"
		}, expectError: "dbname="},
		{name: "zero batch size", modify: func(in *ConfigRawInput) { in.BatchSize = 0 }, expectError: "batch-size"},
		{name: "negative concurrency", modify: func(in *ConfigRawInput) { in.MaxConcurrent = -1 }, expectError: "max-concurrent"},
		{name: "days too large", modify: func(in *ConfigRawInput) { in.Days = MaxDays + 1 }, expectError: "days must be"},
		{name: "negative width", modify: func(in *ConfigRawInput) { in.Width = -5 }, expectError: "width"},
		{name: "bad output", modify: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: "invalid output format"},
		{name: "bad color", modify: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: "--color"},
		{name: "bad poll interval", modify: func(in *ConfigRawInput) { in.PollInterval = "soon" }, expectError: "poll-interval"},
		{name: "bad log level", modify: func(in *ConfigRawInput) { in.LogLevel = "chatty" }, expectError: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.modify(input)
			cfg := &Config{}

			err := ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input)

			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, schema.SQLiteBackend, cfg.DBBackend)
			assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
			assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
			assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
			assert.Equal(t, DefaultClocPath, cfg.ClocPath)
			assert.True(t, cfg.UseColors)
		})
	}
}

func TestProcessAndValidate_Repos(t *testing.T) {
	testCases := []struct {
		raw      string
		expected []string
	}{
		{"", nil},
		{"all", nil},
		{"ALL", nil},
		{"api, web ,,cli", []string{"api", "web", "cli"}},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			input := validInput()
			input.Repos = tc.raw
			input.PollInterval = "2s"
			cfg := &Config{}
			require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input))
			assert.Equal(t, tc.expected, cfg.Repos)
			assert.Equal(t, 2*time.Second, cfg.PollInterval)
		})
	}
}

func TestProcessAndValidate_RepoPath(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	sub := filepath.Join(root, "services", "api")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	t.Run("root path", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, root).Return(root, nil)
		input := validInput()
		input.RepoPathStr = root
		cfg := &Config{}

		require.NoError(t, ProcessAndValidate(ctx, cfg, client, input))
		assert.Equal(t, root, cfg.RepoPath)
		assert.Equal(t, filepath.Base(root), cfg.RepoName)
		assert.Empty(t, cfg.IncludePath)
		client.AssertExpectations(t)
	})

	t.Run("subdirectory becomes include path", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, sub).Return(root, nil)
		input := validInput()
		input.RepoPathStr = sub
		input.Name = "api"
		cfg := &Config{}

		require.NoError(t, ProcessAndValidate(ctx, cfg, client, input))
		assert.Equal(t, root, cfg.RepoPath)
		assert.Equal(t, "api", cfg.RepoName)
		assert.Equal(t, "services/api/", cfg.IncludePath)
	})

	t.Run("explicit include wins", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, sub).Return(root, nil)
		input := validInput()
		input.RepoPathStr = sub
		input.Include = "services/"
		cfg := &Config{}

		require.NoError(t, ProcessAndValidate(ctx, cfg, client, input))
		assert.Equal(t, "services/", cfg.IncludePath)
	})

	t.Run("missing path", func(t *testing.T) {
		input := validInput()
		input.RepoPathStr = filepath.Join(root, "does-not-exist")
		err := ProcessAndValidate(ctx, &Config{}, new(MockGitClient), input)
		assert.ErrorIs(t, err, ErrRepositoryAccess)
	})

	t.Run("not a repository", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, mock.Anything).Return("", errors.New("not a git repository"))
		input := validInput()
		input.RepoPathStr = root
		err := ProcessAndValidate(ctx, &Config{}, client, input)
		assert.ErrorIs(t, err, ErrRepositoryAccess)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	testCases := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "root:pw@tcp(localhost:3306)/codemonitor", false},
		{"mysql missing tcp", schema.MySQLBackend, "root:pw@localhost/codemonitor", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=codemonitor", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=codemonitor", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tc.backend, tc.connStr)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "out/run"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "out/run", profile.Prefix)
}
