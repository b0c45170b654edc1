package iocache

import (
	"fmt"
	"os"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// ClearDatabase removes all stored data for the backend.
// For SQLite, it deletes the database file and its WAL companions.
// For SQL backends (MySQL/PostgreSQL), it drops the codemonitor tables.
func ClearDatabase(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		if dbPath == ":memory:" {
			return nil
		}
		for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
			}
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		for _, table := range []string{historyTable, repositoriesTable, settingsTable, "schema_migrations"} {
			if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}
