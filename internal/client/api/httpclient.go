package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/common"
)

const requestTimeout = 12 * time.Second

// HTTPClient implements Client over the JSON HTTP API.
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewHTTPClient constructs an HTTPClient for baseURL (scheme://host[:port]).
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// SetAccessToken stores the bearer token attached to subsequent requests.
func (c *HTTPClient) SetAccessToken(token string) {
	c.accessToken = token
}

// do performs one request and decodes the response into out (when non-nil).
// Transport failures and unrecognized 5xx responses map to ErrUnavailable;
// recognized error codes map to the shared sentinels.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch body.Code {
	case "validation_error":
		return fmt.Errorf("%w: %s", common.ErrorValidation, body.Error)
	case "not_found":
		return fmt.Errorf("%w: %s", common.ErrorNotFound, body.Error)
	case "sequence_conflict":
		return fmt.Errorf("%w: %s", common.ErrSequenceConflict, body.Error)
	case "unauthorized":
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, body.Error)
	case "partial_index":
		return fmt.Errorf("%w: %s", common.ErrPartialIndex, body.Error)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", common.ErrorInternal, resp.StatusCode, body.Error)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *HTTPClient) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) FindActive(ctx context.Context, resumeID, jobTitle string) (*Session, error) {
	q := url.Values{}
	q.Set("resume_id", resumeID)
	q.Set("job_title", jobTitle)

	var s Session
	if err := c.do(ctx, http.MethodGet, "/api/sessions/active?"+q.Encode(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, scope string, limit int) ([]*SessionSummary, error) {
	q := url.Values{}
	if scope != "" {
		q.Set("scope", scope)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/sessions"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out struct {
		Sessions []*SessionSummary `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *HTTPClient) SaveMetadata(ctx context.Context, id string, req MetadataRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPatch, "/api/sessions/"+url.PathEscape(id)+"/metadata", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) SaveContent(ctx context.Context, id string, content json.RawMessage) (*Session, error) {
	body := struct {
		Content json.RawMessage `json:"content"`
	}{Content: content}

	var s Session
	if err := c.do(ctx, http.MethodPut, "/api/sessions/"+url.PathEscape(id)+"/content", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) SubmitStep(ctx context.Context, id string, step int, req StepRequest) (*Session, error) {
	path := fmt.Sprintf("/api/sessions/%s/steps/%d", url.PathEscape(id), step)

	var s Session
	if err := c.do(ctx, http.MethodPost, path, req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Abandon(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/abandon", struct{}{}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}
