package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/codemonitor/core/backfill"
	"github.com/huangsam/codemonitor/core/stats"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	deps    Deps
	logger  *slog.Logger
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleListRepositories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := h.deps.Store.Repositories().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing repositories failed: %v", err)), nil
	}
	return jsonResult(repos), nil
}

func (h *toolHandler) handleAddRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.RepoName = strings.TrimSpace(request.GetString("name", ""))
	cfg.IncludePath = strings.TrimSpace(request.GetString("include", ""))
	if err := contract.ResolveRepository(ctx, cfg, h.deps.Client, path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}

	registry := h.deps.Store.Repositories()
	repoID, err := registry.Add(ctx, cfg.RepoName, cfg.RepoPath, cfg.IncludePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("registering repository failed: %v", err)), nil
	}
	repo, err := registry.Get(ctx, repoID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("registering repository failed: %v", err)), nil
	}

	taskID := h.deps.Engine.Submit(ctx, repo.ID, repo.Path, repo.IncludePath)
	h.logger.Info("repository added over mcp", "repo", repo.Name, "task_id", taskID)
	return jsonResult(map[string]any{"repository": repo, "task_id": taskID}), nil
}

func (h *toolHandler) handleStartBackfill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	repo, err := h.deps.Store.Repositories().GetByName(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown repository %q: %v", name, err)), nil
	}
	taskID := h.deps.Engine.Submit(ctx, repo.ID, repo.Path, repo.IncludePath)
	return jsonResult(map[string]any{"repo_id": repo.ID, "task_id": taskID}), nil
}

func (h *toolHandler) handleGetTaskStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := request.GetString("task_id", "")
	if taskID == "" {
		return jsonResult(h.deps.Engine.List()), nil
	}
	task, err := h.deps.Engine.Status(taskID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task), nil
}

func (h *toolHandler) handleSyncRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	repo, err := h.deps.Store.Repositories().GetByName(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown repository %q: %v", name, err)), nil
	}

	result, err := backfill.Resync(ctx, backfill.ResyncDeps{
		Client:   h.deps.Client,
		History:  h.deps.Store.History(),
		Registry: h.deps.Store.Repositories(),
		Logger:   h.logger,
	}, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fallback := h.baseCfg.Days
	if fallback <= 0 {
		fallback = contract.DefaultDays
	}
	days := request.GetInt("days", fallback)
	if days <= 0 || days > contract.MaxDays {
		return mcp.NewToolResultError(fmt.Sprintf("days must be greater than 0 and cannot exceed %d", contract.MaxDays)), nil
	}

	var names []string
	if raw := request.GetString("repos", ""); raw != "" && !strings.EqualFold(raw, "all") {
		for p := range strings.SplitSeq(raw, ",") {
			if name := strings.TrimSpace(p); name != "" {
				names = append(names, name)
			}
		}
	}

	start, end := stats.Window(time.Now(), days)
	series, err := stats.Series(ctx, h.deps.Store.Repositories(), h.deps.Store.History(), names, start, end)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading stats failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"start": start, "end": end, "series": series}), nil
}
