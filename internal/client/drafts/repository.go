// Package drafts is the client's local durability layer: payloads queued
// while the server is unreachable are written here and deleted once the
// queued write lands, so a crash or restart cannot lose an optimistic save.
package drafts

import (
	"context"
	"encoding/json"
	"time"
)

// Draft is one locally persisted pending payload, keyed by session and
// channel.
type Draft struct {
	SessionID string
	Channel   string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// Repository stores pending drafts.
type Repository interface {
	Upsert(ctx context.Context, sessionID, channel string, payload json.RawMessage) error
	Get(ctx context.Context, sessionID, channel string) (*Draft, error)
	Delete(ctx context.Context, sessionID, channel string) error
	ListPending(ctx context.Context) ([]*Draft, error)
}
