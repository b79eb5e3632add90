package models

import "time"

// EvidenceStatus is the ingestion state of an evidence document.
type EvidenceStatus string

const (
	EvidencePending    EvidenceStatus = "pending"
	EvidenceProcessing EvidenceStatus = "processing"
	EvidenceCompleted  EvidenceStatus = "completed"
	EvidenceFailed     EvidenceStatus = "failed"
)

// EvidenceDocument tracks the status of one resume's evidence ingestion into
// the vector index. The chunks themselves live in the index; this row only
// records the transition pending → processing → completed|failed.
type EvidenceDocument struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	ResumeID   string         `json:"resume_id"`
	Status     EvidenceStatus `json:"status"`
	ChunkCount int            `json:"chunk_count"`
	LastError  string         `json:"last_error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
