package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/dbx"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Indexer chunks a resume's text into the evidence index and reports how many
// chunks it wrote.
type Indexer interface {
	Index(ctx context.Context, userID, resumeID, text string) (int, error)
}

// EvidenceService drives evidence document ingestion: it creates the status
// row, runs the indexer, and records the outcome.
type EvidenceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	indexer     Indexer
	logger      logging.Logger
}

// NewEvidenceService constructs an EvidenceService.
func NewEvidenceService(db *sql.DB, rm repomanager.RepositoryManager, indexer Indexer, logger logging.Logger) *EvidenceService {
	return &EvidenceService{
		db:          db,
		repomanager: rm,
		indexer:     indexer,
		logger:      logger.With("module", "evidence_service"),
	}
}

// Ingest runs a resume's text through the evidence indexer, tracking the
// document through pending, processing, and a terminal completed or failed
// state. When the index write succeeds but the terminal status write does
// not, the returned error wraps common.ErrPartialIndex so the caller knows
// the chunks exist and only the status row is stale.
func (s *EvidenceService) Ingest(ctx context.Context, userID, resumeID, text string) (*models.EvidenceDocument, error) {
	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: user id is required", common.ErrorValidation)
	case resumeID == "":
		return nil, fmt.Errorf("%w: resume id is required", common.ErrorValidation)
	case text == "":
		return nil, fmt.Errorf("%w: text is required", common.ErrorValidation)
	}

	// The document row and its move to processing commit together, so no
	// reader ever observes a pending row with no worker behind it.
	var doc *models.EvidenceDocument
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.Evidence(tx)

		created, err := txRepo.Create(ctx, &models.EvidenceDocument{
			ID:       uuid.NewString(),
			UserID:   userID,
			ResumeID: resumeID,
			Status:   models.EvidencePending,
		})
		if err != nil {
			return err
		}

		if err := txRepo.SetStatus(ctx, created.ID, userID, models.EvidenceProcessing, 0, ""); err != nil {
			return err
		}
		doc = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc.Status = models.EvidenceProcessing

	repo := s.repomanager.Evidence(s.db)

	chunkCount, indexErr := s.indexer.Index(ctx, userID, resumeID, text)
	if indexErr != nil {
		if err := repo.SetStatus(ctx, doc.ID, userID, models.EvidenceFailed, 0, indexErr.Error()); err != nil {
			s.logger.Error(ctx, "failed to record ingestion failure", "document_id", doc.ID, "error", err.Error())
			return nil, err
		}
		doc.Status = models.EvidenceFailed
		doc.LastError = indexErr.Error()
		s.logger.Warn(ctx, "evidence ingestion failed", "document_id", doc.ID, "error", indexErr.Error())
		return doc, nil
	}

	if err := repo.SetStatus(ctx, doc.ID, userID, models.EvidenceCompleted, chunkCount, ""); err != nil {
		// The chunks are in the index; only the status row is stale.
		s.logger.Error(ctx, "index written but status update failed", "document_id", doc.ID, "error", err.Error())
		return nil, fmt.Errorf("%w: document %s: %v", common.ErrPartialIndex, doc.ID, err)
	}

	doc.Status = models.EvidenceCompleted
	doc.ChunkCount = chunkCount
	s.logger.Info(ctx, "evidence ingested", "document_id", doc.ID, "chunks", chunkCount)
	return doc, nil
}

// RetryStatus re-applies a terminal status for a document whose index write
// succeeded but whose status row was left stale by a partial failure.
func (s *EvidenceService) RetryStatus(ctx context.Context, id, userID string, chunkCount int) (*models.EvidenceDocument, error) {
	repo := s.repomanager.Evidence(s.db)

	if err := repo.SetStatus(ctx, id, userID, models.EvidenceCompleted, chunkCount, ""); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id, userID)
}

// Get returns the evidence document scoped to its owner.
func (s *EvidenceService) Get(ctx context.Context, id, userID string) (*models.EvidenceDocument, error) {
	return s.repomanager.Evidence(s.db).Get(ctx, id, userID)
}
