// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"log/slog"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TaskRunner is the part of the backfill engine the tools drive.
type TaskRunner interface {
	Submit(ctx context.Context, repoID int64, repoPath, pathFilter string) string
	Status(taskID string) (schema.BackfillTask, error)
	List() []schema.BackfillTask
}

// Deps are the collaborators shared by every tool handler.
type Deps struct {
	Store  contract.StoreManager
	Engine TaskRunner
	Client contract.GitClient
	Logger *slog.Logger
}

// NewMCPServer initializes and configures the CodeMonitor MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"CodeMonitor Server",
		"1.0.0",
		server.WithLogging(),
	)

	logger := deps.Logger
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	h := &toolHandler{baseCfg: baseCfg, deps: deps, logger: logger}

	s.AddTool(mcp.NewTool("list_repositories",
		mcp.WithDescription("List the repositories whose code size is being tracked, with their scan status."),
	), h.handleListRepositories)

	s.AddTool(mcp.NewTool("add_repository",
		mcp.WithDescription("Register a Git repository and start backfilling its line-count history in the background."),
		mcp.WithString("path", mcp.Description("Path inside the Git repository. A subdirectory restricts counting to that directory."), mcp.Required()),
		mcp.WithString("name", mcp.Description("Display name (defaults to the repository folder name).")),
		mcp.WithString("include", mcp.Description("Only count files under this path, relative to the repository root.")),
	), h.handleAddRepository)

	s.AddTool(mcp.NewTool("start_backfill",
		mcp.WithDescription("Rebuild the full history of a registered repository. Already stored commits are skipped."),
		mcp.WithString("name", mcp.Description("Registered repository name."), mcp.Required()),
	), h.handleStartBackfill)

	s.AddTool(mcp.NewTool("get_task_status",
		mcp.WithDescription("Get the progress of a backfill task. Omit task_id to list every task of this session."),
		mcp.WithString("task_id", mcp.Description("Identifier returned by add_repository or start_backfill.")),
	), h.handleGetTaskStatus)

	s.AddTool(mcp.NewTool("sync_repository",
		mcp.WithDescription("Append the current tip of an already backfilled repository using a single diff."),
		mcp.WithString("name", mcp.Description("Registered repository name."), mcp.Required()),
	), h.handleSyncRepository)

	s.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Get lines-of-code over time, one point per repository per day with commits."),
		mcp.WithString("repos", mcp.Description("Comma-separated repository names, or 'all' (default).")),
		mcp.WithNumber("days", mcp.Description("How many days back to look (default 30).")),
	), h.handleGetStats)

	return s
}

// StartMCPServer serves the CodeMonitor tools over stdio until the client disconnects.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, deps Deps) error {
	s := NewMCPServer(baseCfg, deps)
	return server.ServeStdio(s)
}
