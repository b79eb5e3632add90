package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// URLSigner produces short-lived download links for resume artifacts joined
// into session summaries.
type URLSigner interface {
	GetPresignedGetUrl(ctx context.Context, key string) (string, error)
}

// SessionService owns the session lifecycle: creation, the tagged update
// kinds (metadata, edited content, step results, status transitions), list
// projections, and the abandonment sweep. It layers step ordering on top of
// the repository's unconditional Update primitive.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      URLSigner
	logger      logging.Logger
}

// NewSessionService constructs a SessionService. signer may be nil, in which
// case summaries carry no resume download links.
func NewSessionService(db *sql.DB, rm repomanager.RepositoryManager, signer URLSigner, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: rm,
		signer:      signer,
		logger:      logger.With("module", "session_service"),
	}
}

// CreateSessionParams carries the fields required to start a workflow.
// CompanyName is optional.
type CreateSessionParams struct {
	ResumeID       string
	JobTitle       string
	JobDescription string
	CompanyName    string
}

// Create starts a new session at step 1, in progress.
func (s *SessionService) Create(ctx context.Context, userID string, p CreateSessionParams) (*models.Session, error) {
	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: user id is required", common.ErrorValidation)
	case p.ResumeID == "":
		return nil, fmt.Errorf("%w: resume id is required", common.ErrorValidation)
	case p.JobTitle == "":
		return nil, fmt.Errorf("%w: job title is required", common.ErrorValidation)
	case p.JobDescription == "":
		return nil, fmt.Errorf("%w: job description is required", common.ErrorValidation)
	}

	session := &models.Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		ResumeID:       p.ResumeID,
		JobTitle:       p.JobTitle,
		JobDescription: p.JobDescription,
		CompanyName:    p.CompanyName,
		CurrentStep:    models.FirstStep,
		Status:         models.StatusInProgress,
	}

	created, err := s.repomanager.Sessions(s.db).Create(ctx, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "session created", "session_id", created.ID, "job_title", created.JobTitle)
	return created, nil
}

// Get returns the session scoped to its owner.
func (s *SessionService) Get(ctx context.Context, id, userID string) (*models.Session, error) {
	return s.repomanager.Sessions(s.db).Get(ctx, id, userID)
}

// FindActive looks up an in-progress session for the same resume and job
// title, so the caller can offer "resume where you left off" instead of
// creating a duplicate. Advisory only: nothing prevents two concurrent
// creations from both succeeding.
func (s *SessionService) FindActive(ctx context.Context, userID, resumeID, jobTitle string) (*models.Session, error) {
	return s.repomanager.Sessions(s.db).FindActive(ctx, userID, resumeID, jobTitle)
}

// MetadataUpdate is the tagged update kind for the workflow descriptor
// fields. Nil fields are left untouched.
type MetadataUpdate struct {
	JobTitle       *string
	JobDescription *string
	CompanyName    *string
}

// requireInProgress rejects writes to sessions in a terminal state. Abandoned
// and completed sessions are read-only for the autosave channels.
func requireInProgress(session *models.Session) error {
	if session.Status != models.StatusInProgress {
		return fmt.Errorf("%w: session is %s", common.ErrorValidation, session.Status)
	}
	return nil
}

// SaveMetadata applies a metadata-channel save. Only in-progress sessions
// accept it.
func (s *SessionService) SaveMetadata(ctx context.Context, id, userID string, u MetadataUpdate) (*models.Session, error) {
	if u.JobTitle == nil && u.JobDescription == nil && u.CompanyName == nil {
		return nil, fmt.Errorf("%w: no metadata fields supplied", common.ErrorValidation)
	}
	if u.JobTitle != nil && *u.JobTitle == "" {
		return nil, fmt.Errorf("%w: job title cannot be empty", common.ErrorValidation)
	}
	if u.JobDescription != nil && *u.JobDescription == "" {
		return nil, fmt.Errorf("%w: job description cannot be empty", common.ErrorValidation)
	}

	session, err := s.repomanager.Sessions(s.db).Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := requireInProgress(session); err != nil {
		return nil, err
	}

	patch := &models.SessionPatch{
		JobTitle:       u.JobTitle,
		JobDescription: u.JobDescription,
		CompanyName:    u.CompanyName,
	}
	return s.repomanager.Sessions(s.db).Update(ctx, id, userID, patch)
}

// SaveEditedContent applies an edited-content-channel save. It never touches
// current_step: the slot represents live-editing state, not step completion,
// and may be rewritten any number of times while the session is in progress.
func (s *SessionService) SaveEditedContent(ctx context.Context, id, userID string, content json.RawMessage) (*models.Session, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is required", common.ErrorValidation)
	}

	session, err := s.repomanager.Sessions(s.db).Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := requireInProgress(session); err != nil {
		return nil, err
	}

	return s.repomanager.Sessions(s.db).Update(ctx, id, userID, &models.SessionPatch{EditedContent: &content})
}

// StepExtras carries the optional companion payloads of a step submission.
type StepExtras struct {
	ResumeText    *string
	EditedContent json.RawMessage
}

// advancementPatch maps "step produced result" to the concrete partial
// update: persist the step's result slot, advance current_step, and complete
// the session at the final step.
func advancementPatch(step int, result json.RawMessage, extras StepExtras) *models.SessionPatch {
	patch := &models.SessionPatch{}

	next := step + 1
	if next > models.FinalStep {
		next = models.FinalStep
	}
	patch.CurrentStep = &next

	switch step {
	case models.StepAnalysis:
		patch.AnalysisResult = &result
		patch.ResumeText = extras.ResumeText
	case models.StepRewrite:
		patch.RewriteResult = &result
		if len(extras.EditedContent) > 0 {
			content := extras.EditedContent
			patch.EditedContent = &content
		}
	case models.StepReview:
		patch.ReviewResult = &result
	case models.StepCompliance:
		patch.ComplianceResult = &result
	case models.StepFinalPrep:
		patch.FinalPrepResult = &result
		completed := models.StatusCompleted
		patch.Status = &completed
	}

	return patch
}

// SubmitStepResult persists a step engine's output and advances the session.
// Re-submitting the session's most recently completed step is allowed and
// simply overwrites the slot; submitting any older step, or a step the
// session has not reached yet, returns common.ErrSequenceConflict instead of
// silently rolling progress backward. Abandoned sessions reject all
// submissions; completed sessions accept only a replay of the final step.
func (s *SessionService) SubmitStepResult(ctx context.Context, id, userID string, step int, result json.RawMessage, extras StepExtras) (*models.Session, error) {
	if step < models.FirstStep || step > models.FinalStep {
		return nil, fmt.Errorf("%w: step %d out of range", common.ErrorValidation, step)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: step result is required", common.ErrorValidation)
	}

	session, err := s.repomanager.Sessions(s.db).Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.StatusInProgress:
	case models.StatusCompleted:
		// A client retry of the final submission is idempotent; completed_at
		// is already set and is kept by the repository.
		if step != models.FinalStep {
			return nil, fmt.Errorf("%w: session is completed", common.ErrSequenceConflict)
		}
	default:
		return nil, fmt.Errorf("%w: session is %s", common.ErrorValidation, session.Status)
	}

	if step < session.CurrentStep-1 || step > session.CurrentStep {
		return nil, fmt.Errorf("%w: step %d submitted while session is at step %d",
			common.ErrSequenceConflict, step, session.CurrentStep)
	}

	updated, err := s.repomanager.Sessions(s.db).Update(ctx, id, userID, advancementPatch(step, result, extras))
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "step result saved",
		"session_id", id, "step", step, "current_step", updated.CurrentStep, "status", updated.Status)
	return updated, nil
}

// MarkAbandoned moves an in-progress session to the terminal abandoned state.
// Completed sessions cannot be abandoned.
func (s *SessionService) MarkAbandoned(ctx context.Context, id, userID string) (*models.Session, error) {
	session, err := s.repomanager.Sessions(s.db).Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusCompleted {
		return nil, fmt.Errorf("%w: completed sessions cannot be abandoned", common.ErrorValidation)
	}

	abandoned := models.StatusAbandoned
	return s.repomanager.Sessions(s.db).Update(ctx, id, userID, &models.SessionPatch{Status: &abandoned})
}

// Delete removes the session. Returns common.ErrorNotFound when (id, userID)
// matches nothing.
func (s *SessionService) Delete(ctx context.Context, id, userID string) error {
	ok, err := s.repomanager.Sessions(s.db).Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

// ListInProgress returns in-progress session summaries, most recently active
// first.
func (s *SessionService) ListInProgress(ctx context.Context, userID string, limit int) ([]*models.SessionSummary, error) {
	return s.listSummaries(ctx, userID, models.StatusInProgress, limit)
}

// ListRecent returns session summaries regardless of status, most recently
// active first.
func (s *SessionService) ListRecent(ctx context.Context, userID string, limit int) ([]*models.SessionSummary, error) {
	return s.listSummaries(ctx, userID, "", limit)
}

func (s *SessionService) listSummaries(ctx context.Context, userID string, status models.SessionStatus, limit int) ([]*models.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	summaries, err := s.repomanager.Sessions(s.db).ListSummaries(ctx, userID, status, limit)
	if err != nil {
		return nil, err
	}

	if s.signer != nil {
		for _, summary := range summaries {
			if summary.ResumeKey == "" {
				continue
			}
			url, err := s.signer.GetPresignedGetUrl(ctx, summary.ResumeKey)
			if err != nil {
				// A missing download link should not break the list view.
				s.logger.Warn(ctx, "presign failed", "session_id", summary.ID, "error", err.Error())
				continue
			}
			summary.ResumeURL = url
		}
	}

	return summaries, nil
}

// SweepAbandoned hard-deletes abandoned sessions idle for longer than age.
func (s *SessionService) SweepAbandoned(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	n, err := s.repomanager.Sessions(s.db).SweepAbandoned(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "abandoned sessions swept", "count", n)
	}
	return n, nil
}
