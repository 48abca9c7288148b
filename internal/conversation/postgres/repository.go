// Package postgres implements the transcript store for the production
// database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/supportql/supportql/internal/conversation"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AppendExchange(ctx context.Context, sessionID, question, answer string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transcript tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := at.Format(conversation.TimestampLayout)
	const insert = `INSERT INTO conversations (session_id, role, content, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insert, sessionID, conversation.RoleCustomer, question, createdAt); err != nil {
		return fmt.Errorf("insert customer record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, sessionID, conversation.RoleAgent, answer, createdAt); err != nil {
		return fmt.Errorf("insert agent record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transcript tx: %w", err)
	}
	return nil
}

func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]conversation.Record, error) {
	const query = `SELECT id, session_id, role, content, created_at FROM conversations WHERE session_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session transcript: %w", err)
	}
	return scanRecords(rows)
}

func (r *Repository) ListAfter(ctx context.Context, afterID int64, limit int) ([]conversation.Record, error) {
	const query = `SELECT id, session_id, role, content, created_at FROM conversations WHERE id > $1 ORDER BY id LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcript after id: %w", err)
	}
	return scanRecords(rows)
}

func (r *Repository) ArchiveCheckpoint(ctx context.Context) (int64, error) {
	const query = `SELECT last_archived_id FROM archive_checkpoint WHERE id = 1`
	var lastArchivedID int64
	err := r.db.QueryRowContext(ctx, query).Scan(&lastArchivedID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read archive checkpoint: %w", err)
	}
	return lastArchivedID, nil
}

func (r *Repository) SetArchiveCheckpoint(ctx context.Context, lastArchivedID int64) error {
	const query = `INSERT INTO archive_checkpoint (id, last_archived_id) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET last_archived_id = excluded.last_archived_id`
	if _, err := r.db.ExecContext(ctx, query, lastArchivedID); err != nil {
		return fmt.Errorf("set archive checkpoint: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]conversation.Record, error) {
	defer func() { _ = rows.Close() }()

	records := make([]conversation.Record, 0)
	for rows.Next() {
		var record conversation.Record
		if err := rows.Scan(&record.ID, &record.SessionID, &record.Role, &record.Content, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript records: %w", err)
	}
	return records, nil
}
