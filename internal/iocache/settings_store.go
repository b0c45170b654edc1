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

// SettingsStoreImpl implements the SettingsStore interface.
type SettingsStoreImpl struct {
	querier
}

var _ contract.SettingsStore = &SettingsStoreImpl{} // Compile-time check

// Get returns the stored value for key, or fallback when it is unset.
func (ss *SettingsStoreImpl) Get(ctx context.Context, key, fallback string) (string, error) {
	query := ss.bind(fmt.Sprintf("SELECT setting_value FROM %s WHERE setting_key = ?", ss.table(settingsTable)))
	var value string
	err := ss.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read setting %q: %w", contract.ErrPersistence, key, err)
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (ss *SettingsStoreImpl) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("setting key cannot be empty")
	}
	table := ss.table(settingsTable)

	var query string
	switch ss.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value), updated_at = VALUES(updated_at)`, table)
	default: // SQLite and PostgreSQL
		query = ss.bind(fmt.Sprintf(`INSERT INTO %s (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`, table))
	}

	if _, err := ss.db.ExecContext(ctx, query, key, value, ss.time(time.Now())); err != nil {
		return fmt.Errorf("%w: failed to write setting %q: %w", contract.ErrPersistence, key, err)
	}
	return nil
}

// All returns every stored setting.
func (ss *SettingsStoreImpl) All(ctx context.Context) (map[string]string, error) {
	query := fmt.Sprintf("SELECT setting_key, setting_value FROM %s", ss.table(settingsTable))
	rows, err := ss.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read settings: %w", contract.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan setting: %w", contract.ErrPersistence, err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
