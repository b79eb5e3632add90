package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/client/api"
	"github.com/RulzOrg/resumate-sub008/internal/client/drafts"
	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
)

// SessionSync binds one workflow's save channels to the session API. It owns
// a Queue with the metadata and content channels pre-registered and knows how
// to restore locally persisted drafts after a restart.
type SessionSync struct {
	sessionID string
	client    api.Client
	queue     *Queue
	store     drafts.Repository
	logger    logging.Logger
}

// SessionSyncOptions carries the per-channel debounce intervals.
type SessionSyncOptions struct {
	MetadataDebounce time.Duration
	ContentDebounce  time.Duration
}

func NewSessionSync(sessionID string, client api.Client, dispatcher *Dispatcher, reporter *Reporter, store drafts.Repository, opts SessionSyncOptions, logger logging.Logger) *SessionSync {
	s := &SessionSync{
		sessionID: sessionID,
		client:    client,
		store:     store,
		logger:    logger.With("module", "session_sync", "session_id", sessionID),
	}

	q := NewQueue(sessionID, dispatcher, reporter, store, logger)
	q.RegisterChannel(ChannelMetadata, opts.MetadataDebounce, s.writeMetadata)
	q.RegisterChannel(ChannelContent, opts.ContentDebounce, s.writeContent)
	s.queue = q

	return s
}

func (s *SessionSync) writeMetadata(ctx context.Context, snapshot json.RawMessage) error {
	var req api.MetadataRequest
	if err := json.Unmarshal(snapshot, &req); err != nil {
		return fmt.Errorf("%w: decoding metadata snapshot: %v", common.ErrorValidation, err)
	}
	_, err := s.client.SaveMetadata(ctx, s.sessionID, req)
	return err
}

func (s *SessionSync) writeContent(ctx context.Context, snapshot json.RawMessage) error {
	_, err := s.client.SaveContent(ctx, s.sessionID, snapshot)
	return err
}

// EditMetadata records a metadata edit for debounced persistence.
func (s *SessionSync) EditMetadata(req api.MetadataRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encoding metadata: %v", common.ErrorValidation, err)
	}
	s.queue.RecordEdit(ChannelMetadata, b)
	return nil
}

// EditContent records an edited-content snapshot for debounced persistence.
func (s *SessionSync) EditContent(content json.RawMessage) {
	s.queue.RecordEdit(ChannelContent, content)
}

// SubmitStep persists a step result immediately. It returns true when the
// workflow may advance the visible step: the write was confirmed, or it was
// optimistically queued while offline.
func (s *SessionSync) SubmitStep(ctx context.Context, step int, req api.StepRequest) bool {
	return s.queue.SaveStepResult(ctx, step, func(ctx context.Context) error {
		_, err := s.client.SubmitStep(ctx, s.sessionID, step, req)
		return err
	})
}

// RestoreDrafts re-enqueues this session's locally persisted drafts, so
// writes queued before a restart are not lost. Drafts for channels this
// instance does not handle stay in the store.
func (s *SessionSync) RestoreDrafts(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("error listing drafts: %w", err)
	}

	for _, d := range pending {
		if d.SessionID != s.sessionID {
			continue
		}
		s.logger.Info(ctx, "restoring draft", "channel", d.Channel)
		s.queue.RecordEdit(Channel(d.Channel), d.Payload)
	}
	return nil
}

// Flush dispatches everything pending. See Queue.Flush.
func (s *SessionSync) Flush(ctx context.Context) bool {
	return s.queue.Flush(ctx)
}

// HasPendingChanges reports un-persisted local state. See Queue.HasPendingChanges.
func (s *SessionSync) HasPendingChanges() bool {
	return s.queue.HasPendingChanges()
}

// Close stops the queue's timers.
func (s *SessionSync) Close() {
	s.queue.Close()
}
