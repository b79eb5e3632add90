package resumes

import (
	"context"

	"github.com/RulzOrg/resumate-sub008/internal/server/models"
)

// Repository stores resume artifact metadata. The file bodies live in object
// storage; rows here only carry display fields and the upload status.
type Repository interface {
	Create(ctx context.Context, resume *models.Resume) (*models.Resume, error)
	Get(ctx context.Context, id, userID string) (*models.Resume, error)
	MarkUploaded(ctx context.Context, id, userID string) error
}
