package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tunevest/songshare-ledger/internal/model"
)

// OutboxRepository provides data access methods for the outbox_events table.
// Events are inserted in the same transaction as the ledger mutation they
// describe and picked up later by the dispatcher.
type OutboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewOutboxRepository creates a new OutboxRepository with the provided database connection.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// WithTx returns a new OutboxRepository scoped to the provided transaction.
func (r *OutboxRepository) WithTx(tx *sql.Tx) *OutboxRepository {
	return &OutboxRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *OutboxRepository) getQuerier() interface {
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

// Insert appends an outbound fact. The payload is marshalled here so callers
// hand over plain event structs.
func (r *OutboxRepository) Insert(ctx context.Context, eventType, aggregateID string, payload any, createdAt time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `
		INSERT INTO outbox_events (id, event_type, aggregate_id, payload, created_at, attempts)
		VALUES (?, ?, ?, ?, ?, 0)
	`

	_, err = r.getQuerier().ExecContext(ctx, query,
		uuid.New().String(),
		eventType,
		aggregateID,
		string(body),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// ListPending retrieves undispatched events, oldest first.
func (r *OutboxRepository) ListPending(limit int) ([]model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, aggregate_id, payload, created_at, dispatched_at, attempts
		FROM outbox_events
		WHERE dispatched_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`

	rows, err := r.getQuerier().Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	events := []model.OutboxEvent{}

	for rows.Next() {
		var e model.OutboxEvent
		var dispatchedAt sql.NullTime

		err := rows.Scan(
			&e.ID,
			&e.EventType,
			&e.AggregateID,
			&e.Payload,
			&e.CreatedAt,
			&dispatchedAt,
			&e.Attempts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}

		e.CreatedAt = e.CreatedAt.UTC()
		e.DispatchedAt = nullTimePtr(dispatchedAt)
		events = append(events, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox events: %w", err)
	}

	return events, nil
}

// MarkDispatched stamps an event as delivered.
func (r *OutboxRepository) MarkDispatched(ctx context.Context, id string, dispatchedAt time.Time) error {
	query := `UPDATE outbox_events SET dispatched_at = ? WHERE id = ?`

	_, err := r.getQuerier().ExecContext(ctx, query, dispatchedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event dispatched: %w", err)
	}

	return nil
}

// IncrementAttempts counts a failed delivery attempt.
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id string) error {
	query := `UPDATE outbox_events SET attempts = attempts + 1 WHERE id = ?`

	_, err := r.getQuerier().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment outbox attempts: %w", err)
	}

	return nil
}
