package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/dfryer1193/namestofaces/shared/db"
)

var _ domain.PreferenceStore = (*SQLitePreferenceRepository)(nil)

// SQLitePreferenceRepository implements domain.PreferenceStore on the preferences table
type SQLitePreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(sqlDB *sql.DB) *SQLitePreferenceRepository {
	return &SQLitePreferenceRepository{
		db: sqlDB,
	}
}

const upsertPreferenceQuery = `
	INSERT INTO preferences (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
`

// Set replaces the blob stored under key. The write is a single statement,
// so a failure leaves the previous value in place. It joins a transaction
// already present in ctx.
func (r *SQLitePreferenceRepository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("preference key cannot be empty")
	}
	if value == nil {
		value = []byte{}
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, upsertPreferenceQuery, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert preference %s: %w", key, err)
	}
	return nil
}

const getPreferenceQuery = `
	SELECT value FROM preferences WHERE key = ?
`

// Get returns domain.ErrNotFound when nothing was ever stored under key
func (r *SQLitePreferenceRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("preference key cannot be empty")
	}

	var value []byte
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPreferenceQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preference %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference %s: %w", key, err)
	}

	return value, nil
}
