// Package sessions provides the PostgreSQL-backed repository for
// optimization session persistence.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/dbx"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
)

const sessionColumns = `id, user_id, resume_id, job_title, job_description, company_name, resume_text,
		current_step, status,
		analysis_result, rewrite_result, edited_content, review_result, compliance_result, final_prep_result,
		created_at, last_active_at, completed_at, updated_at`

// PostgresRepository implements session storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanSession(row interface{ Scan(dest ...any) error }) (*models.Session, error) {
	s := &models.Session{}
	var companyName, resumeText sql.NullString
	var completedAt sql.NullTime
	// database/sql cannot scan NULL into *json.RawMessage, only *[]byte.
	var analysis, rewrite, edited, review, compliance, finalPrep []byte

	err := row.Scan(
		&s.ID, &s.UserID, &s.ResumeID, &s.JobTitle, &s.JobDescription, &companyName, &resumeText,
		&s.CurrentStep, &s.Status,
		&analysis, &rewrite, &edited, &review, &compliance, &finalPrep,
		&s.CreatedAt, &s.LastActiveAt, &completedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CompanyName = companyName.String
	s.ResumeText = resumeText.String
	s.AnalysisResult = analysis
	s.RewriteResult = rewrite
	s.EditedContent = edited
	s.ReviewResult = review
	s.ComplianceResult = compliance
	s.FinalPrepResult = finalPrep
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return s, nil
}

// Create inserts a new session row and returns the canonical row with
// database-assigned timestamps.
func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, resume_id, job_title, job_description, company_name, resume_text, current_step, status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
		RETURNING ` + sessionColumns

	row := r.db.QueryRowContext(ctx, query,
		session.ID, session.UserID, session.ResumeID,
		session.JobTitle, session.JobDescription, session.CompanyName, session.ResumeText,
		session.CurrentStep, session.Status)

	created, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

// Get returns the session identified by (id, userID). A row owned by another
// user behaves exactly like a missing row.
func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND user_id = $2`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// FindActive returns the most recently active in-progress session for the
// same resume and job title, if any. The lookup is advisory: no uniqueness
// constraint backs it, so concurrent creations can still both succeed.
func (r *PostgresRepository) FindActive(ctx context.Context, userID, resumeID, jobTitle string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = $1 AND resume_id = $2 AND job_title = $3 AND status = $4
		ORDER BY last_active_at DESC
		LIMIT 1`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, userID, resumeID, jobTitle, models.StatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// ListSummaries returns lightweight session projections joined with resume
// display metadata, ordered by last_active_at descending. An empty status
// matches any status.
func (r *PostgresRepository) ListSummaries(ctx context.Context, userID string, status models.SessionStatus, limit int) ([]*models.SessionSummary, error) {
	query := `SELECT s.id, s.job_title, s.company_name, s.current_step, s.status, s.last_active_at,
			r.title, r.filename, r.storage_key
		FROM sessions s
		LEFT JOIN resumes r ON r.id = s.resume_id AND r.user_id = s.user_id
		WHERE s.user_id = $1 AND ($2 = '' OR s.status = $2)
		ORDER BY s.last_active_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select sessions: %w", err)
	}
	defer rows.Close()

	var result []*models.SessionSummary
	for rows.Next() {
		var item models.SessionSummary
		var companyName, resumeTitle, resumeFilename, resumeKey sql.NullString
		if err := rows.Scan(
			&item.ID, &item.JobTitle, &companyName, &item.CurrentStep, &item.Status, &item.LastActiveAt,
			&resumeTitle, &resumeFilename, &resumeKey,
		); err != nil {
			return nil, err
		}
		item.CompanyName = companyName.String
		item.ResumeTitle = resumeTitle.String
		item.ResumeFilename = resumeFilename.String
		item.ResumeKey = resumeKey.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update applies the non-nil fields of patch to the session row in a single
// statement. Every call also touches last_active_at and updated_at; moving
// status to completed stamps completed_at exactly once (COALESCE keeps the
// first value on replay). Returns the updated canonical row, or
// common.ErrorNotFound when (id, userID) matches nothing.
func (r *PostgresRepository) Update(ctx context.Context, id, userID string, patch *models.SessionPatch) (*models.Session, error) {
	if patch == nil || patch.IsZero() {
		return nil, fmt.Errorf("%w: empty patch", common.ErrorValidation)
	}

	sets := []string{"last_active_at = now()", "updated_at = now()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.CurrentStep != nil {
		add("current_step", *patch.CurrentStep)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
		if *patch.Status == models.StatusCompleted {
			sets = append(sets, "completed_at = COALESCE(completed_at, now())")
		}
	}
	if patch.JobTitle != nil {
		add("job_title", *patch.JobTitle)
	}
	if patch.JobDescription != nil {
		add("job_description", *patch.JobDescription)
	}
	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.ResumeText != nil {
		add("resume_text", *patch.ResumeText)
	}
	if patch.AnalysisResult != nil {
		add("analysis_result", []byte(*patch.AnalysisResult))
	}
	if patch.RewriteResult != nil {
		add("rewrite_result", []byte(*patch.RewriteResult))
	}
	if patch.EditedContent != nil {
		add("edited_content", []byte(*patch.EditedContent))
	}
	if patch.ReviewResult != nil {
		add("review_result", []byte(*patch.ReviewResult))
	}
	if patch.ComplianceResult != nil {
		add("compliance_result", []byte(*patch.ComplianceResult))
	}
	if patch.FinalPrepResult != nil {
		add("final_prep_result", []byte(*patch.FinalPrepResult))
	}

	args = append(args, id)
	idPos := len(args)
	args = append(args, userID)
	userPos := len(args)

	query := fmt.Sprintf(`UPDATE sessions SET %s WHERE id = $%d AND user_id = $%d RETURNING `+sessionColumns,
		strings.Join(sets, ", "), idPos, userPos)

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Delete removes the session owned by userID. Returns false when nothing
// matched.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

// SweepAbandoned hard-deletes abandoned sessions idle since before cutoff.
// In-progress and completed sessions are never touched regardless of age.
func (r *PostgresRepository) SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE status = $1 AND last_active_at < $2`,
		models.StatusAbandoned, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
