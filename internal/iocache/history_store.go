package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	querier
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// insertIgnoreQuery returns an INSERT that silently skips rows whose
// (repo_id, commit_hash) pair is already stored.
func (hs *HistoryStoreImpl) insertIgnoreQuery() string {
	table := hs.table(historyTable)
	const cols = "(repo_id, committed_at, commit_day, commit_hash, total_loc)"
	switch hs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("INSERT INTO %s %s VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE commit_hash = commit_hash", table, cols)
	case schema.PostgreSQLBackend:
		return hs.bind(fmt.Sprintf("INSERT INTO %s %s VALUES (?, ?, ?, ?, ?) ON CONFLICT (repo_id, commit_hash) DO NOTHING", table, cols))
	default: // SQLite
		return fmt.Sprintf("INSERT OR IGNORE INTO %s %s VALUES (?, ?, ?, ?, ?)", table, cols)
	}
}

// AppendBatch stores all snapshots in one transaction. Either every new row
// becomes visible or none does.
func (hs *HistoryStoreImpl) AppendBatch(ctx context.Context, repoID int64, snapshots []schema.LOCSnapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}
	for _, snap := range snapshots {
		if snap.TotalLOC < 0 {
			return 0, fmt.Errorf("%w: negative total for commit %s", contract.ErrPersistence, snap.CommitID)
		}
	}

	tx, err := hs.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %w", contract.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, hs.insertIgnoreQuery())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prepare insert: %w", contract.ErrPersistence, err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, snap := range snapshots {
		res, err := stmt.ExecContext(ctx,
			repoID, hs.time(snap.Timestamp), schema.DayKey(snap.Timestamp), snap.CommitID, snap.TotalLOC)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to insert commit %s: %w", contract.ErrPersistence, snap.CommitID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit batch: %w", contract.ErrPersistence, err)
	}
	return inserted, nil
}

// QueryRange keeps the latest record per repository per UTC day. Ties on the
// same timestamp go to the row inserted last.
func (hs *HistoryStoreImpl) QueryRange(ctx context.Context, repoIDs []int64, start, end time.Time) ([]schema.HistoryPoint, error) {
	if len(repoIDs) == 0 {
		return []schema.HistoryPoint{}, nil
	}

	in, idArgs := inClause(repoIDs)
	query := hs.bind(fmt.Sprintf(`
		SELECT repo_id, committed_at, total_loc FROM (
			SELECT repo_id, committed_at, total_loc,
			       ROW_NUMBER() OVER (
			           PARTITION BY repo_id, commit_day
			           ORDER BY committed_at DESC, id DESC
			       ) AS rn
			FROM %s
			WHERE repo_id IN %s AND committed_at >= ? AND committed_at <= ?
		) ranked
		WHERE rn = 1
		ORDER BY repo_id, committed_at`, hs.table(historyTable), in))

	args := append(idArgs, hs.time(start), hs.time(end))
	rows, err := hs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query history: %w", contract.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	points := []schema.HistoryPoint{}
	for rows.Next() {
		var p schema.HistoryPoint
		var ts dbTime
		if err := rows.Scan(&p.RepoID, &ts, &p.TotalLOC); err != nil {
			return nil, fmt.Errorf("%w: failed to scan history row: %w", contract.ErrPersistence, err)
		}
		p.Timestamp = ts.Time
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrPersistence, err)
	}
	return points, nil
}

// Latest returns the record stored last for the repository.
func (hs *HistoryStoreImpl) Latest(ctx context.Context, repoID int64) (schema.HistoryRecord, bool, error) {
	query := hs.bind(fmt.Sprintf(
		"SELECT id, repo_id, committed_at, commit_hash, total_loc FROM %s WHERE repo_id = ? ORDER BY id DESC LIMIT 1",
		hs.table(historyTable)))

	rec, err := scanRecord(hs.db.QueryRowContext(ctx, query, repoID))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.HistoryRecord{}, false, nil
	}
	if err != nil {
		return schema.HistoryRecord{}, false, fmt.Errorf("%w: failed to load latest record: %w", contract.ErrPersistence, err)
	}
	return rec, true, nil
}

// Count returns how many records are stored for the repository.
func (hs *HistoryStoreImpl) Count(ctx context.Context, repoID int64) (int64, error) {
	var n int64
	query := hs.bind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE repo_id = ?", hs.table(historyTable)))
	if err := hs.db.QueryRowContext(ctx, query, repoID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count records: %w", contract.ErrPersistence, err)
	}
	return n, nil
}

// All returns every record, ordered by repository and insertion.
func (hs *HistoryStoreImpl) All(ctx context.Context) ([]schema.HistoryRecord, error) {
	query := fmt.Sprintf(
		"SELECT id, repo_id, committed_at, commit_hash, total_loc FROM %s ORDER BY repo_id, id",
		hs.table(historyTable))
	rows, err := hs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read history: %w", contract.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan history row: %w", contract.ErrPersistence, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRepository removes all history of a repository.
func (hs *HistoryStoreImpl) DeleteRepository(ctx context.Context, repoID int64) error {
	query := hs.bind(fmt.Sprintf("DELETE FROM %s WHERE repo_id = ?", hs.table(historyTable)))
	if _, err := hs.db.ExecContext(ctx, query, repoID); err != nil {
		return fmt.Errorf("%w: failed to delete history: %w", contract.ErrPersistence, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (schema.HistoryRecord, error) {
	var rec schema.HistoryRecord
	var ts dbTime
	if err := row.Scan(&rec.ID, &rec.RepoID, &ts, &rec.CommitID, &rec.TotalLOC); err != nil {
		return schema.HistoryRecord{}, err
	}
	rec.Timestamp = ts.Time
	return rec, nil
}
