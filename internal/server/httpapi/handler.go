// Package httpapi exposes the session engine over HTTP. Handlers translate
// JSON requests into service calls and service sentinel errors into status
// codes; all domain rules live in the services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/RulzOrg/resumate-sub008/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// SessionAPI is the slice of the session service the handlers use.
type SessionAPI interface {
	Create(ctx context.Context, userID string, p services.CreateSessionParams) (*models.Session, error)
	Get(ctx context.Context, id, userID string) (*models.Session, error)
	FindActive(ctx context.Context, userID, resumeID, jobTitle string) (*models.Session, error)
	SaveMetadata(ctx context.Context, id, userID string, u services.MetadataUpdate) (*models.Session, error)
	SaveEditedContent(ctx context.Context, id, userID string, content json.RawMessage) (*models.Session, error)
	SubmitStepResult(ctx context.Context, id, userID string, step int, result json.RawMessage, extras services.StepExtras) (*models.Session, error)
	MarkAbandoned(ctx context.Context, id, userID string) (*models.Session, error)
	Delete(ctx context.Context, id, userID string) error
	ListInProgress(ctx context.Context, userID string, limit int) ([]*models.SessionSummary, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.SessionSummary, error)
}

// StorageAPI is the slice of the storage service the handlers use.
type StorageAPI interface {
	CreateUpload(ctx context.Context, userID string, p services.CreateUploadParams) (*services.ResumeUpload, error)
	ConfirmUpload(ctx context.Context, id, userID string) error
}

// EvidenceAPI is the slice of the evidence service the handlers use.
type EvidenceAPI interface {
	Ingest(ctx context.Context, userID, resumeID, text string) (*models.EvidenceDocument, error)
	Get(ctx context.Context, id, userID string) (*models.EvidenceDocument, error)
}

// API wires the services into HTTP handlers.
type API struct {
	sessions  SessionAPI
	storage   StorageAPI
	evidence  EvidenceAPI
	secretKey []byte
	logger    logging.Logger
}

// NewAPI constructs the handler set. secretKey verifies bearer tokens.
func NewAPI(sessions SessionAPI, storage StorageAPI, evidence EvidenceAPI, secretKey []byte, logger logging.Logger) *API {
	return &API{
		sessions:  sessions,
		storage:   storage,
		evidence:  evidence,
		secretKey: secretKey,
		logger:    logger.With("module", "httpapi"),
	}
}

// Machine-readable error codes returned alongside HTTP statuses. Clients map
// these back to sentinel errors.
const (
	codeValidation       = "validation_error"
	codeNotFound         = "not_found"
	codeSequenceConflict = "sequence_conflict"
	codeUnauthorized     = "unauthorized"
	codePartialIndex     = "partial_index"
	codeInternal         = "internal_error"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code string, err error) {
	respondJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// respondServiceError maps sentinel errors to HTTP statuses and codes.
func (a *API) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		respondError(w, http.StatusBadRequest, codeValidation, err)
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, common.ErrSequenceConflict):
		respondError(w, http.StatusConflict, codeSequenceConflict, err)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, codeUnauthorized, err)
	case errors.Is(err, common.ErrPartialIndex):
		respondError(w, http.StatusInternalServerError, codePartialIndex, err)
	default:
		a.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
		respondError(w, http.StatusInternalServerError, codeInternal, common.ErrorInternal)
	}
}

func (a *API) handlePing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResumeID       string `json:"resume_id"`
		JobTitle       string `json:"job_title"`
		JobDescription string `json:"job_description"`
		CompanyName    string `json:"company_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err)
		return
	}

	session, err := a.sessions.Create(r.Context(), userIDFromContext(r.Context()), services.CreateSessionParams{
		ResumeID:       req.ResumeID,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		CompanyName:    req.CompanyName,
	})
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, codeValidation, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	var (
		summaries []*models.SessionSummary
		err       error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "in_progress":
		summaries, err = a.sessions.ListInProgress(r.Context(), userID, limit)
	case "recent":
		summaries, err = a.sessions.ListRecent(r.Context(), userID, limit)
	default:
		respondError(w, http.StatusBadRequest, codeValidation, errors.New("scope must be in_progress or recent"))
		return
	}
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []*models.SessionSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (a *API) handleFindActiveSession(w http.ResponseWriter, r *http.Request) {
	resumeID := r.URL.Query().Get("resume_id")
	jobTitle := r.URL.Query().Get("job_title")
	if resumeID == "" || jobTitle == "" {
		respondError(w, http.StatusBadRequest, codeValidation, errors.New("resume_id and job_title are required"))
		return
	}

	session, err := a.sessions.FindActive(r.Context(), userIDFromContext(r.Context()), resumeID, jobTitle)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.sessions.Get(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()))
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handlePatchMetadata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobTitle       *string `json:"job_title"`
		JobDescription *string `json:"job_description"`
		CompanyName    *string `json:"company_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err)
		return
	}

	session, err := a.sessions.SaveMetadata(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()),
		services.MetadataUpdate{
			JobTitle:       req.JobTitle,
			JobDescription: req.JobDescription,
			CompanyName:    req.CompanyName,
		})
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handlePutContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content json.RawMessage `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err)
		return
	}

	session, err := a.sessions.SaveEditedContent(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()), req.Content)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, errors.New("step must be an integer"))
		return
	}

	var req struct {
		Result        json.RawMessage `json:"result"`
		ResumeText    *string         `json:"resume_text"`
		EditedContent json.RawMessage `json:"edited_content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err)
		return
	}

	session, err := a.sessions.SubmitStepResult(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()),
		step, req.Result, services.StepExtras{
			ResumeText:    req.ResumeText,
			EditedContent: req.EditedContent,
		})
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.sessions.MarkAbandoned(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()))
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Delete(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context())); err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string `json:"title"`
		Filename  string `json:"filename"`
		MimeType  string `json:"mime_type"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err)
		return
	}

	upload, err := a.storage.CreateUpload(r.Context(), userIDFromContext(r.Context()), services.CreateUploadParams{
		Title:     req.Title,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, upload)
}

func (a *API) handleConfirmUpload(w http.ResponseWriter, r *http.Request) {
	if err := a.storage.ConfirmUpload(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context())); err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleIngestEvidence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err)
		return
	}

	doc, err := a.evidence.Ingest(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "resumeID"), req.Text)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

func (a *API) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	doc, err := a.evidence.Get(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()))
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}
