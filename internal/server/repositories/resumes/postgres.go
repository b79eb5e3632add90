// Package resumes provides the PostgreSQL-backed repository for resume
// artifact metadata.
package resumes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/dbx"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
)

// PostgresRepository implements resume metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, resume *models.Resume) (*models.Resume, error) {
	query := `
		INSERT INTO resumes (id, user_id, title, filename, storage_key, mime_type, size_bytes, upload_status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		resume.ID, resume.UserID, resume.Title, resume.Filename,
		resume.StorageKey, resume.MimeType, resume.SizeBytes, resume.UploadStatus,
	).Scan(&resume.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return resume, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*models.Resume, error) {
	query := `SELECT id, user_id, title, filename, storage_key, mime_type, size_bytes, upload_status, created_at
		FROM resumes WHERE id = $1 AND user_id = $2`

	resume := &models.Resume{}
	var mimeType sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&resume.ID, &resume.UserID, &resume.Title, &resume.Filename,
		&resume.StorageKey, &mimeType, &resume.SizeBytes, &resume.UploadStatus, &resume.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	resume.MimeType = mimeType.String
	return resume, nil
}

// MarkUploaded flips upload_status from pending to uploaded once the client
// has PUT the file body to its presigned URL.
func (r *PostgresRepository) MarkUploaded(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE resumes SET upload_status = $1 WHERE id = $2 AND user_id = $3`,
		models.UploadUploaded, id, userID)
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
