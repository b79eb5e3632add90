// Package evidence provides the PostgreSQL-backed repository for evidence
// document ingestion status.
package evidence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/dbx"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
)

// PostgresRepository implements evidence status storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.EvidenceDocument) (*models.EvidenceDocument, error) {
	query := `
		INSERT INTO evidence_documents (id, user_id, resume_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		doc.ID, doc.UserID, doc.ResumeID, string(doc.Status),
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*models.EvidenceDocument, error) {
	query := `SELECT id, user_id, resume_id, status, chunk_count, last_error, created_at, updated_at
		FROM evidence_documents WHERE id = $1 AND user_id = $2`

	doc := &models.EvidenceDocument{}
	var lastError sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&doc.ID, &doc.UserID, &doc.ResumeID, &doc.Status, &doc.ChunkCount,
		&lastError, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	doc.LastError = lastError.String
	return doc, nil
}

// SetStatus records a status transition. The transition itself is
// unconditional; idempotent replays simply rewrite the same values.
func (r *PostgresRepository) SetStatus(ctx context.Context, id, userID string, status models.EvidenceStatus, chunkCount int, lastError string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE evidence_documents
		SET status = $1, chunk_count = $2, last_error = NULLIF($3, ''), updated_at = now()
		WHERE id = $4 AND user_id = $5`,
		string(status), chunkCount, lastError, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
