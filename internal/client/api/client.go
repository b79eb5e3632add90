// Package api is the typed HTTP client for the session API. It translates
// the server's error codes back into the shared sentinel errors so callers
// can classify failures with errors.Is.
package api

import (
	"context"
	"encoding/json"
	"time"
)

// Session mirrors the server's canonical session row.
type Session struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	ResumeID       string `json:"resume_id"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
	CompanyName    string `json:"company_name,omitempty"`
	ResumeText     string `json:"resume_text,omitempty"`
	CurrentStep    int    `json:"current_step"`
	Status         string `json:"status"`

	AnalysisResult   json.RawMessage `json:"analysis_result,omitempty"`
	RewriteResult    json.RawMessage `json:"rewrite_result,omitempty"`
	EditedContent    json.RawMessage `json:"edited_content,omitempty"`
	ReviewResult     json.RawMessage `json:"review_result,omitempty"`
	ComplianceResult json.RawMessage `json:"compliance_result,omitempty"`
	FinalPrepResult  json.RawMessage `json:"final_prep_result,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SessionSummary mirrors the server's list projection.
type SessionSummary struct {
	ID             string    `json:"id"`
	JobTitle       string    `json:"job_title"`
	CompanyName    string    `json:"company_name,omitempty"`
	CurrentStep    int       `json:"current_step"`
	Status         string    `json:"status"`
	LastActiveAt   time.Time `json:"last_active_at"`
	ResumeTitle    string    `json:"resume_title,omitempty"`
	ResumeFilename string    `json:"resume_filename,omitempty"`
	ResumeURL      string    `json:"resume_url,omitempty"`
}

// CreateSessionRequest starts a new workflow.
type CreateSessionRequest struct {
	ResumeID       string `json:"resume_id"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
	CompanyName    string `json:"company_name,omitempty"`
}

// MetadataRequest is the metadata-channel write. Nil fields are untouched.
type MetadataRequest struct {
	JobTitle       *string `json:"job_title,omitempty"`
	JobDescription *string `json:"job_description,omitempty"`
	CompanyName    *string `json:"company_name,omitempty"`
}

// StepRequest is the step-result write.
type StepRequest struct {
	Result        json.RawMessage `json:"result"`
	ResumeText    *string         `json:"resume_text,omitempty"`
	EditedContent json.RawMessage `json:"edited_content,omitempty"`
}

// Client is the session API surface the sync layer writes through.
type Client interface {
	Ping(ctx context.Context) error
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	FindActive(ctx context.Context, resumeID, jobTitle string) (*Session, error)
	ListSessions(ctx context.Context, scope string, limit int) ([]*SessionSummary, error)
	SaveMetadata(ctx context.Context, id string, req MetadataRequest) (*Session, error)
	SaveContent(ctx context.Context, id string, content json.RawMessage) (*Session, error)
	SubmitStep(ctx context.Context, id string, step int, req StepRequest) (*Session, error)
	Abandon(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}
