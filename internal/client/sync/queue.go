package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/client/drafts"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
)

// Channel is an independently debounced category of client edit.
type Channel string

const (
	// ChannelMetadata carries structured form fields (job title, company).
	ChannelMetadata Channel = "metadata"
	// ChannelContent carries free-text edited resume content.
	ChannelContent Channel = "content"
)

// ChannelWriteFunc persists one channel snapshot remotely.
type ChannelWriteFunc func(ctx context.Context, snapshot json.RawMessage) error

type channelConfig struct {
	interval time.Duration
	write    ChannelWriteFunc
}

// Queue converts rapid local edits into a minimal number of durable writes.
// Each channel owns its debounce timer handle; timers are torn down
// deterministically by Flush and Close, never left armed over stale
// snapshots. Pending slots are cleared only after a write is confirmed or
// optimistically queued with a local draft behind it.
type Queue struct {
	sessionID  string
	dispatcher *Dispatcher
	reporter   *Reporter
	drafts     drafts.Repository
	logger     logging.Logger

	mu       sync.Mutex
	channels map[Channel]channelConfig
	pending  map[Channel]json.RawMessage
	timers   map[Channel]*time.Timer
	gen      map[Channel]uint64
	closed   bool
}

// NewQueue constructs a Queue for one session workflow. draftRepo may be nil,
// which disables local draft durability for queued writes.
func NewQueue(sessionID string, dispatcher *Dispatcher, reporter *Reporter, draftRepo drafts.Repository, logger logging.Logger) *Queue {
	q := &Queue{
		sessionID:  sessionID,
		dispatcher: dispatcher,
		reporter:   reporter,
		drafts:     draftRepo,
		logger:     logger.With("module", "sync_queue", "session_id", sessionID),
		channels:   make(map[Channel]channelConfig),
		pending:    make(map[Channel]json.RawMessage),
		timers:     make(map[Channel]*time.Timer),
		gen:        make(map[Channel]uint64),
	}

	// A queued write that fails on replay would otherwise leave its channel
	// stuck in the queued state.
	dispatcher.OnReplayFailure(func(key string, err error) {
		ch, ok := strings.CutPrefix(key, q.sessionID+"/")
		if !ok {
			return
		}
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		q.reporter.SetError(Channel(ch), err.Error())
	})

	return q
}

// RegisterChannel configures a channel's debounce interval and writer.
// Channels must be registered before their first RecordEdit.
func (q *Queue) RegisterChannel(ch Channel, interval time.Duration, write ChannelWriteFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.channels[ch] = channelConfig{interval: interval, write: write}
}

// RecordEdit stores snapshot as the channel's pending value, overwriting any
// previous pending value, and re-arms the channel's debounce timer. The edit
// counts as a pending change immediately, before any timer fires.
func (q *Queue) RecordEdit(ch Channel, snapshot json.RawMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	cfg, ok := q.channels[ch]
	if !ok {
		q.logger.Warn(context.Background(), "edit on unregistered channel", "channel", string(ch))
		return
	}

	q.pending[ch] = snapshot
	q.gen[ch]++

	if t, ok := q.timers[ch]; ok {
		t.Stop()
	}
	q.timers[ch] = time.AfterFunc(cfg.interval, func() {
		q.flushChannel(context.Background(), ch)
	})
}

// flushChannel dispatches the channel's current pending snapshot, clearing
// the slot only when the write is confirmed or durably queued, and only if no
// newer edit arrived while the write was in flight.
func (q *Queue) flushChannel(ctx context.Context, ch Channel) bool {
	q.mu.Lock()
	snapshot, ok := q.pending[ch]
	if !ok {
		q.mu.Unlock()
		return true
	}
	gen := q.gen[ch]
	cfg := q.channels[ch]
	if t, tok := q.timers[ch]; tok {
		t.Stop()
		delete(q.timers, ch)
	}
	q.mu.Unlock()

	q.reporter.SetSaving(ch)

	result, err := q.dispatcher.Dispatch(ctx, q.dispatchKey(ch), q.wrapWrite(ch, cfg.write, snapshot))

	switch result {
	case DispatchOK:
		q.reporter.SetSaved(ch)
		q.clearPendingIfUnchanged(ch, gen)
		return true

	case DispatchQueued:
		if q.drafts != nil {
			if derr := q.drafts.Upsert(ctx, q.sessionID, string(ch), snapshot); derr != nil {
				q.logger.Error(ctx, "draft write failed", "channel", string(ch), "error", derr.Error())
			}
		}
		q.reporter.SetQueued(ch)
		q.clearPendingIfUnchanged(ch, gen)
		return true

	default:
		q.reporter.SetError(ch, err.Error())
		return false
	}
}

// wrapWrite binds a snapshot to the channel writer and clears the backing
// draft once the write lands, so a replayed queued write erases its local
// copy.
func (q *Queue) wrapWrite(ch Channel, write ChannelWriteFunc, snapshot json.RawMessage) WriteFunc {
	return func(ctx context.Context) error {
		if err := write(ctx, snapshot); err != nil {
			return err
		}
		if q.drafts != nil {
			if derr := q.drafts.Delete(ctx, q.sessionID, string(ch)); derr != nil {
				q.logger.Warn(ctx, "draft cleanup failed", "channel", string(ch), "error", derr.Error())
			}
		}
		q.reporter.SetSaved(ch)
		return nil
	}
}

// dispatchKey scopes coalescing keys to this queue's session, so one shared
// dispatcher can serve several workflows without cross-coalescing.
func (q *Queue) dispatchKey(ch Channel) string {
	return q.sessionID + "/" + string(ch)
}

func (q *Queue) clearPendingIfUnchanged(ch Channel, gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gen[ch] == gen {
		delete(q.pending, ch)
	}
}

// SaveStepResult dispatches a discrete workflow transition immediately, never
// debounced. It returns true when the write was confirmed or optimistically
// queued, so the workflow can decide whether to advance the visible step.
func (q *Queue) SaveStepResult(ctx context.Context, step int, fn WriteFunc) bool {
	ch := Channel(fmt.Sprintf("step/%d", step))

	q.reporter.SetSaving(ch)

	result, err := q.dispatcher.Dispatch(ctx, q.dispatchKey(ch), func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		q.reporter.SetSaved(ch)
		return nil
	})

	switch result {
	case DispatchOK:
		q.reporter.SetSaved(ch)
		return true
	case DispatchQueued:
		q.reporter.SetQueued(ch)
		return true
	default:
		q.reporter.SetError(ch, err.Error())
		return false
	}
}

// Flush cancels all armed timers, dispatches every pending channel snapshot,
// and replays the offline queue when possible. It returns true only if
// nothing is left pending or queued afterwards.
func (q *Queue) Flush(ctx context.Context) bool {
	q.mu.Lock()
	for ch, t := range q.timers {
		t.Stop()
		delete(q.timers, ch)
	}
	channels := make([]Channel, 0, len(q.pending))
	for ch := range q.pending {
		channels = append(channels, ch)
	}
	q.mu.Unlock()

	ok := true
	for _, ch := range channels {
		if !q.flushChannel(ctx, ch) {
			ok = false
		}
	}

	if q.dispatcher.Online() && q.dispatcher.QueueLen() > 0 {
		q.dispatcher.Replay(ctx)
	}
	if q.dispatcher.QueueLen() > 0 {
		ok = false
	}
	return ok
}

// HasPendingChanges reports whether any channel holds an un-persisted
// snapshot or the offline queue is non-empty. Callers use it to warn before
// navigation or teardown.
func (q *Queue) HasPendingChanges() bool {
	q.mu.Lock()
	pending := len(q.pending) > 0
	q.mu.Unlock()
	return pending || q.dispatcher.QueueLen() > 0
}

// Close stops all armed timers. Pending snapshots are dropped; callers that
// need them persisted must Flush first.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	for ch, t := range q.timers {
		t.Stop()
		delete(q.timers, ch)
	}
}
