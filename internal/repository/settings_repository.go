package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
)

// Well-known setting keys.
const (
	SettingWebhookSecret = "webhook_secret"
)

// SettingsRepository provides data access methods for the ledger_settings
// key/value table. Secrets are encrypted by the caller before they get here.
type SettingsRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSettingsRepository creates a new SettingsRepository with the provided database connection.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// WithTx returns a new SettingsRepository scoped to the provided transaction.
func (r *SettingsRepository) WithTx(tx *sql.Tx) *SettingsRepository {
	return &SettingsRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *SettingsRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Get retrieves a setting value.
// Returns ErrSettingNotFound if the key has no value.
func (r *SettingsRepository) Get(key string) (string, error) {
	if key == "" {
		return "", apperrors.ErrEmptyID
	}

	var value string
	err := r.getQuerier().QueryRow(`SELECT value FROM ledger_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return value, nil
}

// Set writes a setting value, replacing any previous one.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return apperrors.ErrEmptyID
	}

	query := `
		INSERT INTO ledger_settings (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`

	_, err := r.getQuerier().ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}
