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

// RepositoryStoreImpl implements the RepositoryRegistry interface.
type RepositoryStoreImpl struct {
	querier
}

var _ contract.RepositoryRegistry = &RepositoryStoreImpl{} // Compile-time check

const repositoryColumns = "id, name, path, include_path, status, last_scanned_at, created_at"

// Add registers a repository by name. An existing name keeps its row and id.
func (rs *RepositoryStoreImpl) Add(ctx context.Context, name, path, includePath string) (int64, error) {
	if name == "" {
		return 0, errors.New("repository name cannot be empty")
	}
	table := rs.table(repositoriesTable)
	const cols = "(name, path, include_path, status, created_at)"

	var query string
	switch rs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf("INSERT INTO %s %s VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE name = name", table, cols)
	case schema.PostgreSQLBackend:
		query = rs.bind(fmt.Sprintf("INSERT INTO %s %s VALUES (?, ?, ?, ?, ?) ON CONFLICT (name) DO NOTHING", table, cols))
	default: // SQLite
		query = fmt.Sprintf("INSERT OR IGNORE INTO %s %s VALUES (?, ?, ?, ?, ?)", table, cols)
	}

	if _, err := rs.db.ExecContext(ctx, query, name, path, includePath, string(schema.RepoIdle), rs.time(time.Now())); err != nil {
		return 0, fmt.Errorf("%w: failed to register repository %q: %w", contract.ErrPersistence, name, err)
	}

	repo, err := rs.GetByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return repo.ID, nil
}

// Get loads a repository by id.
func (rs *RepositoryStoreImpl) Get(ctx context.Context, repoID int64) (schema.Repository, error) {
	query := rs.bind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", repositoryColumns, rs.table(repositoriesTable)))
	repo, err := scanRepository(rs.db.QueryRowContext(ctx, query, repoID))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Repository{}, fmt.Errorf("%w: id %d", contract.ErrRepositoryNotFound, repoID)
	}
	if err != nil {
		return schema.Repository{}, fmt.Errorf("%w: failed to load repository %d: %w", contract.ErrPersistence, repoID, err)
	}
	return repo, nil
}

// GetByName loads a repository by its unique name.
func (rs *RepositoryStoreImpl) GetByName(ctx context.Context, name string) (schema.Repository, error) {
	query := rs.bind(fmt.Sprintf("SELECT %s FROM %s WHERE name = ?", repositoryColumns, rs.table(repositoriesTable)))
	repo, err := scanRepository(rs.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Repository{}, fmt.Errorf("%w: %q", contract.ErrRepositoryNotFound, name)
	}
	if err != nil {
		return schema.Repository{}, fmt.Errorf("%w: failed to load repository %q: %w", contract.ErrPersistence, name, err)
	}
	return repo, nil
}

// List returns every registered repository ordered by id.
func (rs *RepositoryStoreImpl) List(ctx context.Context) ([]schema.Repository, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", repositoryColumns, rs.table(repositoriesTable))
	rows, err := rs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list repositories: %w", contract.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	repos := []schema.Repository{}
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan repository: %w", contract.ErrPersistence, err)
		}
		repos = append(repos, repo)
	}
	return repos, rows.Err()
}

// Remove unregisters a repository. Its history is left to the caller.
func (rs *RepositoryStoreImpl) Remove(ctx context.Context, repoID int64) error {
	if _, err := rs.Get(ctx, repoID); err != nil {
		return err
	}
	query := rs.bind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", rs.table(repositoriesTable)))
	return rs.execOne(ctx, repoID, query, repoID)
}

// SetStatus records the scan state of a repository.
func (rs *RepositoryStoreImpl) SetStatus(ctx context.Context, repoID int64, status schema.RepoStatus) error {
	query := rs.bind(fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ?", rs.table(repositoriesTable)))
	return rs.execOne(ctx, repoID, query, string(status), repoID)
}

// SetLastScanned records when a repository was last scanned.
func (rs *RepositoryStoreImpl) SetLastScanned(ctx context.Context, repoID int64, at time.Time) error {
	query := rs.bind(fmt.Sprintf("UPDATE %s SET last_scanned_at = ? WHERE id = ?", rs.table(repositoriesTable)))
	return rs.execOne(ctx, repoID, query, rs.time(at), repoID)
}

// execOne runs a statement that must touch the repository row.
func (rs *RepositoryStoreImpl) execOne(ctx context.Context, repoID int64, query string, args ...any) error {
	res, err := rs.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: failed to update repository %d: %w", contract.ErrPersistence, repoID, err)
	}
	// MySQL reports zero affected rows for updates that change nothing.
	n, err := res.RowsAffected()
	if err == nil && n == 0 && rs.backend != schema.MySQLBackend {
		return fmt.Errorf("%w: id %d", contract.ErrRepositoryNotFound, repoID)
	}
	return nil
}

func scanRepository(row rowScanner) (schema.Repository, error) {
	var repo schema.Repository
	var status string
	var lastScanned, created dbTime
	if err := row.Scan(&repo.ID, &repo.Name, &repo.Path, &repo.IncludePath, &status, &lastScanned, &created); err != nil {
		return schema.Repository{}, err
	}
	repo.Status = schema.RepoStatus(status)
	repo.LastScannedAt = lastScanned.ptr()
	repo.CreatedAt = created.Time
	return repo, nil
}
