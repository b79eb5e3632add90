package sessions

import (
	"context"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/server/models"
)

// Repository is the durable session store. Update is the single low-level
// write primitive; it performs no ordering checks — step ordering is enforced
// by the service layer.
type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	Get(ctx context.Context, id, userID string) (*models.Session, error)
	FindActive(ctx context.Context, userID, resumeID, jobTitle string) (*models.Session, error)
	ListSummaries(ctx context.Context, userID string, status models.SessionStatus, limit int) ([]*models.SessionSummary, error)
	Update(ctx context.Context, id, userID string, patch *models.SessionPatch) (*models.Session, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
	SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
}
