package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
	"github.com/RulzOrg/resumate-sub008/internal/server/auth"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/RulzOrg/resumate-sub008/internal/server/services"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

// -------- test fakes --------

type fakeSessionAPI struct {
	SessionAPI

	session *models.Session
	err     error

	summaries []*models.SessionSummary

	gotUserID string
	gotStep   int
	gotResult json.RawMessage
}

func (f *fakeSessionAPI) Create(ctx context.Context, userID string, p services.CreateSessionParams) (*models.Session, error) {
	f.gotUserID = userID
	return f.session, f.err
}

func (f *fakeSessionAPI) Get(ctx context.Context, id, userID string) (*models.Session, error) {
	f.gotUserID = userID
	return f.session, f.err
}

func (f *fakeSessionAPI) FindActive(ctx context.Context, userID, resumeID, jobTitle string) (*models.Session, error) {
	return f.session, f.err
}

func (f *fakeSessionAPI) SaveMetadata(ctx context.Context, id, userID string, u services.MetadataUpdate) (*models.Session, error) {
	return f.session, f.err
}

func (f *fakeSessionAPI) SaveEditedContent(ctx context.Context, id, userID string, content json.RawMessage) (*models.Session, error) {
	return f.session, f.err
}

func (f *fakeSessionAPI) SubmitStepResult(ctx context.Context, id, userID string, step int, result json.RawMessage, extras services.StepExtras) (*models.Session, error) {
	f.gotStep = step
	f.gotResult = result
	return f.session, f.err
}

func (f *fakeSessionAPI) MarkAbandoned(ctx context.Context, id, userID string) (*models.Session, error) {
	return f.session, f.err
}

func (f *fakeSessionAPI) Delete(ctx context.Context, id, userID string) error {
	return f.err
}

func (f *fakeSessionAPI) ListInProgress(ctx context.Context, userID string, limit int) ([]*models.SessionSummary, error) {
	return f.summaries, f.err
}

func (f *fakeSessionAPI) ListRecent(ctx context.Context, userID string, limit int) ([]*models.SessionSummary, error) {
	return f.summaries, f.err
}

type fakeStorageAPI struct {
	StorageAPI
	upload *services.ResumeUpload
	err    error
}

func (f *fakeStorageAPI) CreateUpload(ctx context.Context, userID string, p services.CreateUploadParams) (*services.ResumeUpload, error) {
	return f.upload, f.err
}

func (f *fakeStorageAPI) ConfirmUpload(ctx context.Context, id, userID string) error {
	return f.err
}

type fakeEvidenceAPI struct {
	EvidenceAPI
	doc *models.EvidenceDocument
	err error
}

func (f *fakeEvidenceAPI) Ingest(ctx context.Context, userID, resumeID, text string) (*models.EvidenceDocument, error) {
	return f.doc, f.err
}

func (f *fakeEvidenceAPI) Get(ctx context.Context, id, userID string) (*models.EvidenceDocument, error) {
	return f.doc, f.err
}

// -------- helpers --------

func newTestAPI(t *testing.T, s SessionAPI, st StorageAPI, e EvidenceAPI) http.Handler {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAPI(s, st, e, testSecret, logger).Routes()
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("u-1", testSecret, time.Minute)
	require.NoError(t, err)

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(common.AccessTokenHeaderName, "Bearer "+token)
	return req
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// -------- tests --------

func TestPing_NoAuthRequired(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthorized, decodeErrorBody(t, rec).Code)
}

func TestAuth_BadToken(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/", nil)
	req.Header.Set(common.AccessTokenHeaderName, "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSession_OK(t *testing.T) {
	fake := &fakeSessionAPI{session: &models.Session{
		ID: "s-1", CurrentStep: 1, Status: models.StatusInProgress,
	}}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/sessions/",
		`{"resume_id":"r-1","job_title":"Engineer","job_description":"Go"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "u-1", fake.gotUserID)

	var got models.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Equal(t, "s-1", got.ID)
}

func TestCreateSession_UnknownFieldRejected(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/sessions/", `{"bogus":1}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeValidation, decodeErrorBody(t, rec).Code)
}

func TestCreateSession_ValidationError(t *testing.T) {
	fake := &fakeSessionAPI{err: common.ErrorValidation}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/sessions/", `{"resume_id":"r-1"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	fake := &fakeSessionAPI{err: common.ErrorNotFound}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/sessions/nope", ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, codeNotFound, decodeErrorBody(t, rec).Code)
}

func TestSubmitStep_SequenceConflict(t *testing.T) {
	fake := &fakeSessionAPI{err: common.ErrSequenceConflict}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/sessions/s-1/steps/4",
		`{"result":{"score":1}}`))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, codeSequenceConflict, decodeErrorBody(t, rec).Code)
	require.Equal(t, 4, fake.gotStep)
}

func TestSubmitStep_NonIntegerStep(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/sessions/s-1/steps/two",
		`{"result":{}}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitStep_OK(t *testing.T) {
	fake := &fakeSessionAPI{session: &models.Session{ID: "s-1", CurrentStep: 2}}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/sessions/s-1/steps/1",
		`{"result":{"match_score":72},"resume_text":"text"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"match_score":72}`, string(fake.gotResult))
}

func TestListSessions_Scopes(t *testing.T) {
	fake := &fakeSessionAPI{summaries: []*models.SessionSummary{{ID: "s-1"}}}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	for _, target := range []string{
		"/api/sessions/",
		"/api/sessions/?scope=in_progress",
		"/api/sessions/?scope=recent&limit=5",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(t, http.MethodGet, target, ""))
		require.Equal(t, http.StatusOK, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/sessions/?scope=bogus", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/sessions/?limit=-1", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessions_EmptyListNotNull(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/sessions/", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"sessions":[]`)
}

func TestFindActive_RequiresQueryParams(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/sessions/active", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindActive_OK(t *testing.T) {
	fake := &fakeSessionAPI{session: &models.Session{ID: "s-1"}}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet,
		"/api/sessions/active?resume_id=r-1&job_title=Engineer", ""))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteSession_NoContent(t *testing.T) {
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/api/sessions/s-1", ""))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateUpload_OK(t *testing.T) {
	fake := &fakeStorageAPI{upload: &services.ResumeUpload{
		Resume:    &models.Resume{ID: "r-1", UploadStatus: models.UploadPending},
		UploadURL: "https://signed.example/put",
	}}
	h := newTestAPI(t, &fakeSessionAPI{}, fake, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/resumes/uploads",
		`{"filename":"resume.pdf","mime_type":"application/pdf"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "https://signed.example/put")
}

func TestIngestEvidence_PartialIndexCode(t *testing.T) {
	fake := &fakeEvidenceAPI{err: common.ErrPartialIndex}
	h := newTestAPI(t, &fakeSessionAPI{}, &fakeStorageAPI{}, fake)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/evidence/r-1", `{"text":"resume"}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, codePartialIndex, decodeErrorBody(t, rec).Code)
}

func TestInternalErrorIsOpaque(t *testing.T) {
	fake := &fakeSessionAPI{err: io.ErrUnexpectedEOF}
	h := newTestAPI(t, fake, &fakeStorageAPI{}, &fakeEvidenceAPI{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/sessions/s-1", ""))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeErrorBody(t, rec)
	require.Equal(t, codeInternal, body.Code)
	require.NotContains(t, body.Error, "unexpected EOF")
}
