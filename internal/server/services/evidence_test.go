package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/evidence"
	"github.com/stretchr/testify/require"
)

type fakeEvidenceRepo struct {
	evidence.Repository

	created   *models.EvidenceDocument
	createErr error

	statuses  []models.EvidenceStatus
	statusErr map[models.EvidenceStatus]error

	getDoc *models.EvidenceDocument
	getErr error
}

func (f *fakeEvidenceRepo) Create(ctx context.Context, doc *models.EvidenceDocument) (*models.EvidenceDocument, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = doc
	return doc, nil
}

func (f *fakeEvidenceRepo) SetStatus(ctx context.Context, id, userID string, status models.EvidenceStatus, chunkCount int, lastError string) error {
	if err := f.statusErr[status]; err != nil {
		return err
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeEvidenceRepo) Get(ctx context.Context, id, userID string) (*models.EvidenceDocument, error) {
	return f.getDoc, f.getErr
}

type fakeIndexer struct {
	chunks int
	err    error
}

func (f *fakeIndexer) Index(ctx context.Context, userID, resumeID, text string) (int, error) {
	return f.chunks, f.err
}

func newEvidenceService(t *testing.T, repo *fakeEvidenceRepo, idx Indexer) *EvidenceService {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Ingest opens one transaction around the create/processing writes.
	mock.ExpectBegin()
	mock.ExpectCommit()

	return NewEvidenceService(db, &fakeRepoManager{e: repo}, idx, testLogger())
}

func TestIngest_Validation(t *testing.T) {
	svc := newEvidenceService(t, &fakeEvidenceRepo{}, &fakeIndexer{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "", "r-1", "text")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Ingest(ctx, "u-1", "", "text")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Ingest(ctx, "u-1", "r-1", "")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestIngest_Success(t *testing.T) {
	repo := &fakeEvidenceRepo{}
	svc := newEvidenceService(t, repo, &fakeIndexer{chunks: 7})

	doc, err := svc.Ingest(context.Background(), "u-1", "r-1", "resume text")
	require.NoError(t, err)
	require.Equal(t, models.EvidenceCompleted, doc.Status)
	require.Equal(t, 7, doc.ChunkCount)
	require.Equal(t, []models.EvidenceStatus{models.EvidenceProcessing, models.EvidenceCompleted}, repo.statuses)
}

func TestIngest_ProcessingWriteFailureRollsBack(t *testing.T) {
	// If the move to processing fails, the created row must roll back with it.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeEvidenceRepo{statusErr: map[models.EvidenceStatus]error{
		models.EvidenceProcessing: errBoom{},
	}}
	svc := NewEvidenceService(db, &fakeRepoManager{e: repo}, &fakeIndexer{}, testLogger())

	_, err = svc.Ingest(context.Background(), "u-1", "r-1", "resume text")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_IndexerFailureIsTerminal(t *testing.T) {
	repo := &fakeEvidenceRepo{}
	svc := newEvidenceService(t, repo, &fakeIndexer{err: errors.New("embed-fail")})

	doc, err := svc.Ingest(context.Background(), "u-1", "r-1", "resume text")
	require.NoError(t, err)
	require.Equal(t, models.EvidenceFailed, doc.Status)
	require.Equal(t, "embed-fail", doc.LastError)
	require.Equal(t, []models.EvidenceStatus{models.EvidenceProcessing, models.EvidenceFailed}, repo.statuses)
}

func TestIngest_PartialIndex(t *testing.T) {
	// Chunks landed in the index but the completed-status write failed.
	repo := &fakeEvidenceRepo{statusErr: map[models.EvidenceStatus]error{
		models.EvidenceCompleted: errBoom{},
	}}
	svc := newEvidenceService(t, repo, &fakeIndexer{chunks: 3})

	_, err := svc.Ingest(context.Background(), "u-1", "r-1", "resume text")
	require.ErrorIs(t, err, common.ErrPartialIndex)
}

func TestRetryStatus(t *testing.T) {
	repo := &fakeEvidenceRepo{getDoc: &models.EvidenceDocument{
		ID: "e-1", Status: models.EvidenceCompleted, ChunkCount: 3,
	}}
	svc := newEvidenceService(t, repo, &fakeIndexer{})

	doc, err := svc.RetryStatus(context.Background(), "e-1", "u-1", 3)
	require.NoError(t, err)
	require.Equal(t, models.EvidenceCompleted, doc.Status)
	require.Equal(t, []models.EvidenceStatus{models.EvidenceCompleted}, repo.statuses)
}
