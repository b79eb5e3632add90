package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RulzOrg/resumate-sub008/internal/client/migrations"
	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/dbx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RunMigrations applies the embedded client schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the draft database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Upsert stores payload for (sessionID, channel), replacing any previous
// draft on that key.
func (r *SQLiteRepository) Upsert(ctx context.Context, sessionID, channel string, payload json.RawMessage) error {
	query := `INSERT INTO drafts (session_id, channel, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id, channel) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, sessionID, channel, []byte(payload)); err != nil {
		return fmt.Errorf("failed to upsert draft: %w", err)
	}
	return nil
}

// Get returns the draft for (sessionID, channel) or common.ErrorNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, sessionID, channel string) (*Draft, error) {
	query := `SELECT session_id, channel, payload, updated_at FROM drafts
		WHERE session_id = ? AND channel = ?`

	var d Draft
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, sessionID, channel).
		Scan(&d.SessionID, &d.Channel, &payload, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select draft: %w", err)
	}
	d.Payload = payload
	return &d, nil
}

// Delete removes the draft for (sessionID, channel). Deleting a missing draft
// is not an error: the queued write may have landed from another path.
func (r *SQLiteRepository) Delete(ctx context.Context, sessionID, channel string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE session_id = ? AND channel = ?`, sessionID, channel); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// ListPending returns all stored drafts, oldest first, so a restarting client
// can re-enqueue them in write order.
func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*Draft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, channel, payload, updated_at FROM drafts ORDER BY updated_at, session_id, channel`)
	if err != nil {
		return nil, fmt.Errorf("failed to select drafts: %w", err)
	}
	defer rows.Close()

	var result []*Draft
	for rows.Next() {
		var d Draft
		var payload []byte
		if err := rows.Scan(&d.SessionID, &d.Channel, &payload, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Payload = payload
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
