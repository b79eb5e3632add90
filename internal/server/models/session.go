// Package models defines the server-side persistence models for the session
// engine: optimization sessions, resume artifacts, and evidence documents.
package models

import (
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle state of an optimization session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Workflow steps. The session advances linearly from StepAnalysis to
// StepFinalPrep; submitting the final step completes the session.
const (
	StepAnalysis   = 1
	StepRewrite    = 2
	StepReview     = 3
	StepCompliance = 4
	StepFinalPrep  = 5

	FirstStep = StepAnalysis
	FinalStep = StepFinalPrep
)

// Session is the server-authoritative record of workflow progress. The five
// result slots hold opaque structured payloads produced by the step engines;
// EditedContent is the companion live-editing payload for the rewrite step
// and may be rewritten without advancing CurrentStep.
type Session struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	ResumeID       string        `json:"resume_id"`
	JobTitle       string        `json:"job_title"`
	JobDescription string        `json:"job_description"`
	CompanyName    string        `json:"company_name,omitempty"`
	ResumeText     string        `json:"resume_text,omitempty"`
	CurrentStep    int           `json:"current_step"`
	Status         SessionStatus `json:"status"`

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

// SessionPatch is the single low-level write shape accepted by the session
// repository. Nil fields are left untouched. Patches are only constructed by
// the service layer's tagged update kinds, never assembled ad hoc by callers.
type SessionPatch struct {
	CurrentStep    *int
	Status         *SessionStatus
	JobTitle       *string
	JobDescription *string
	CompanyName    *string
	ResumeText     *string

	AnalysisResult   *json.RawMessage
	RewriteResult    *json.RawMessage
	EditedContent    *json.RawMessage
	ReviewResult     *json.RawMessage
	ComplianceResult *json.RawMessage
	FinalPrepResult  *json.RawMessage
}

// IsZero reports whether the patch carries no changes at all.
func (p *SessionPatch) IsZero() bool {
	return p.CurrentStep == nil && p.Status == nil &&
		p.JobTitle == nil && p.JobDescription == nil && p.CompanyName == nil &&
		p.ResumeText == nil &&
		p.AnalysisResult == nil && p.RewriteResult == nil && p.EditedContent == nil &&
		p.ReviewResult == nil && p.ComplianceResult == nil && p.FinalPrepResult == nil
}

// SessionSummary is the lightweight list-view projection joined with resume
// display metadata. ResumeURL is attached by the service layer when the
// artifact store can presign a download link.
type SessionSummary struct {
	ID             string        `json:"id"`
	JobTitle       string        `json:"job_title"`
	CompanyName    string        `json:"company_name,omitempty"`
	CurrentStep    int           `json:"current_step"`
	Status         SessionStatus `json:"status"`
	LastActiveAt   time.Time     `json:"last_active_at"`
	ResumeTitle    string        `json:"resume_title,omitempty"`
	ResumeFilename string        `json:"resume_filename,omitempty"`
	ResumeKey      string        `json:"-"`
	ResumeURL      string        `json:"resume_url,omitempty"`
}
