package evidence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate_StartsPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+evidence_documents\s*\(id,\s*user_id,\s*resume_id,\s*status\)`).
		WithArgs("e-1", "u-1", "r-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	doc, err := repo.Create(context.Background(), &models.EvidenceDocument{
		ID: "e-1", UserID: "u-1", ResumeID: "r-1", Status: models.EvidencePending,
	})
	require.NoError(t, err)
	require.Equal(t, models.EvidencePending, doc.Status)
}

func TestSetStatus_Transitions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+evidence_documents\s+SET\s+status\s*=\s*\$1,\s*chunk_count\s*=\s*\$2,\s*last_error\s*=\s*NULLIF\(\$3,\s*''\),\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$4\s+AND\s+user_id\s*=\s*\$5$`

	mock.ExpectExec(q).WithArgs("processing", 0, "", "e-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("completed", 12, "", "e-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("failed", 0, "index unreachable", "e-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, repo.SetStatus(ctx, "e-1", "u-1", models.EvidenceProcessing, 0, ""))
	require.NoError(t, repo.SetStatus(ctx, "e-1", "u-1", models.EvidenceCompleted, 12, ""))
	require.NoError(t, repo.SetStatus(ctx, "e-1", "u-1", models.EvidenceFailed, 0, "index unreachable"))
}

func TestSetStatus_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+evidence_documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "ghost", "u-1", models.EvidenceCompleted, 1, "")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
