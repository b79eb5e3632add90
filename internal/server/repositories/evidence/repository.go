package evidence

import (
	"context"

	"github.com/RulzOrg/resumate-sub008/internal/server/models"
)

// Repository stores evidence document ingestion status rows.
type Repository interface {
	Create(ctx context.Context, doc *models.EvidenceDocument) (*models.EvidenceDocument, error)
	Get(ctx context.Context, id, userID string) (*models.EvidenceDocument, error)
	SetStatus(ctx context.Context, id, userID string, status models.EvidenceStatus, chunkCount int, lastError string) error
}
