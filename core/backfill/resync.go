package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/codemonitor/core/loc"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/gitlog"
	"github.com/huangsam/codemonitor/schema"
)

// ResyncDeps are the collaborators of an incremental resync.
type ResyncDeps struct {
	Client   contract.GitClient
	History  contract.HistoryStore
	Registry contract.RepoStatusWriter
	Logger   *slog.Logger
	Now      func() time.Time
}

// Resync brings a backfilled repository up to its current tip with a single
// diff instead of a full backfill. The new record is stamped with the tip's
// author time. A repository without stored history returns ErrNoHistory.
func Resync(ctx context.Context, deps ResyncDeps, repo schema.Repository) (schema.ResyncResult, error) {
	logger := deps.Logger
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := logger.With("repo_id", repo.ID, "repo", repo.Name)
	result := schema.ResyncResult{RepoID: repo.ID}

	latest, ok, err := deps.History.Latest(ctx, repo.ID)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, fmt.Errorf("%w: repository %q has not been backfilled", contract.ErrNoHistory, repo.Name)
	}
	result.BaseCommit = latest.CommitID
	result.PreviousLOC = latest.TotalLOC
	result.TotalLOC = latest.TotalLOC

	head, ok, err := gitlog.HeadRevision(repo.Path)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, fmt.Errorf("%w: repository %q has no commits", contract.ErrRepositoryAccess, repo.Name)
	}
	result.HeadCommit = head

	if head == latest.CommitID {
		result.UpToDate = true
		log.Debug("resync found no new commits", "head", head)
		recordScan(ctx, deps.Registry, log, repo.ID, now())
		return result, nil
	}

	delta, err := gitlog.Delta(ctx, deps.Client, repo.Path, repo.IncludePath, latest.CommitID, head)
	if err != nil {
		return result, err
	}
	result.Delta = delta
	result.TotalLOC = loc.Clamp(latest.TotalLOC, delta.Inserted, delta.Deleted)

	authoredAt, err := gitlog.CommitTime(repo.Path, head)
	if err != nil {
		return result, err
	}

	snapshot := schema.LOCSnapshot{Timestamp: authoredAt, CommitID: head, TotalLOC: result.TotalLOC}
	if _, err := deps.History.AppendBatch(ctx, repo.ID, []schema.LOCSnapshot{snapshot}); err != nil {
		return result, err
	}
	log.Info("resync stored new tip", "head", head, "inserted", delta.Inserted, "deleted", delta.Deleted, "total_loc", result.TotalLOC)

	recordScan(ctx, deps.Registry, log, repo.ID, now())
	return result, nil
}

func recordScan(ctx context.Context, registry contract.RepoStatusWriter, log *slog.Logger, repoID int64, at time.Time) {
	if registry == nil {
		return
	}
	if err := registry.SetLastScanned(ctx, repoID, at); err != nil {
		log.Warn("failed to record last scan", "error", err)
	}
}
