package sync

import (
	"context"
	"sync"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/client/api"
	"github.com/RulzOrg/resumate-sub008/internal/logging"
	"github.com/sethvargo/go-retry"
)

// WriteFunc performs one remote write. It is retried as a unit; a queued
// WriteFunc is re-invoked verbatim on replay.
type WriteFunc func(ctx context.Context) error

// DispatchResult is the tri-state outcome of Dispatch.
type DispatchResult int

const (
	// DispatchOK means the write was confirmed by the server.
	DispatchOK DispatchResult = iota
	// DispatchQueued means the write was accepted optimistically and sits in
	// the replay queue.
	DispatchQueued
	// DispatchFailed means the write failed terminally or exhausted retries.
	DispatchFailed
)

// Pinger probes backend reachability, beyond mere link-level connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type queuedWrite struct {
	key string
	fn  WriteFunc
}

// Dispatcher gates writes on two signals: an externally observed connectivity
// flag (SetOnline) and a cached backend reachability probe. When either is
// down, writes are queued FIFO, coalesced by key, and replayed in order on
// reconnect. Online writes run under bounded exponential-backoff retry;
// terminal errors are never retried or queued.
type Dispatcher struct {
	pinger        Pinger
	probeInterval time.Duration
	maxRetries    uint64
	baseDelay     time.Duration
	logger        logging.Logger

	mu              sync.Mutex
	online          bool
	lastProbe       time.Time
	lastReachable   bool
	queue           []*queuedWrite
	onReplayFailure []func(key string, err error)
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// Pinger probes the backend; nil means reachability is assumed.
	Pinger Pinger
	// ProbeInterval caches the reachability result between probes.
	ProbeInterval time.Duration
	// MaxRetries bounds retry attempts beyond the first try.
	MaxRetries uint64
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// NewDispatcher constructs a Dispatcher that starts online.
func NewDispatcher(opts DispatcherOptions, logger logging.Logger) *Dispatcher {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 3 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 250 * time.Millisecond
	}
	return &Dispatcher{
		pinger:        opts.Pinger,
		probeInterval: opts.ProbeInterval,
		maxRetries:    opts.MaxRetries,
		baseDelay:     opts.RetryBaseDelay,
		logger:        logger.With("module", "dispatcher"),
		online:        true,
	}
}

// SetOnline records the observed connectivity signal. The offline→online
// transition replays the queue in enqueue order.
func (d *Dispatcher) SetOnline(ctx context.Context, online bool) {
	d.mu.Lock()
	wasOnline := d.online
	d.online = online
	// Force a fresh probe after a connectivity change.
	d.lastProbe = time.Time{}
	d.mu.Unlock()

	if online && !wasOnline {
		d.Replay(ctx)
	}
}

// OnReplayFailure registers fn to be called when a queued write fails during
// replay, either by exhausting its retries (the entry stays queued) or
// terminally (the entry is dropped). Handlers run outside the dispatcher
// lock. An optimistically queued write is otherwise invisible to its caller,
// so this is the only path for surfacing its eventual failure.
func (d *Dispatcher) OnReplayFailure(fn func(key string, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onReplayFailure = append(d.onReplayFailure, fn)
}

func (d *Dispatcher) notifyReplayFailure(key string, err error) {
	d.mu.Lock()
	handlers := make([]func(string, error), len(d.onReplayFailure))
	copy(handlers, d.onReplayFailure)
	d.mu.Unlock()

	for _, fn := range handlers {
		fn(key, err)
	}
}

// Online reports the externally observed connectivity signal.
func (d *Dispatcher) Online() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

// reachable reports whether the backend answered a ping recently. The result
// is cached for probeInterval to keep hot paths off the network.
func (d *Dispatcher) reachable(ctx context.Context) bool {
	if d.pinger == nil {
		return true
	}

	d.mu.Lock()
	if time.Since(d.lastProbe) < d.probeInterval && !d.lastProbe.IsZero() {
		result := d.lastReachable
		d.mu.Unlock()
		return result
	}
	d.mu.Unlock()

	err := d.pinger.Ping(ctx)

	d.mu.Lock()
	d.lastProbe = time.Now()
	d.lastReachable = err == nil
	result := d.lastReachable
	d.mu.Unlock()
	return result
}

// attempt runs fn under bounded exponential backoff. Terminal errors abort
// retrying immediately.
func (d *Dispatcher) attempt(ctx context.Context, fn WriteFunc) error {
	backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(d.baseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if api.IsTerminal(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// enqueue appends fn under key, replacing any queued write with the same key
// in place so its position in the FIFO order is preserved.
func (d *Dispatcher) enqueue(key string, fn WriteFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, qw := range d.queue {
		if qw.key == key {
			qw.fn = fn
			return
		}
	}
	d.queue = append(d.queue, &queuedWrite{key: key, fn: fn})
}

// Dispatch executes fn when both connectivity signals are up; otherwise it
// queues fn and reports optimistic acceptance. The error accompanies
// DispatchFailed and is nil otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, key string, fn WriteFunc) (DispatchResult, error) {
	if !d.Online() || !d.reachable(ctx) {
		d.enqueue(key, fn)
		d.logger.Debug(ctx, "write queued offline", "key", key)
		return DispatchQueued, nil
	}

	if err := d.attempt(ctx, fn); err != nil {
		d.logger.Warn(ctx, "write failed", "key", key, "error", err.Error())
		return DispatchFailed, err
	}
	return DispatchOK, nil
}

// Replay drains the queue in enqueue order, awaiting each entry. Entries that
// fail stay queued in place for the next reconnect or flush; later entries
// are still attempted, since per-key coalescing already guarantees same-key
// ordering.
func (d *Dispatcher) Replay(ctx context.Context) {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	var remaining []*queuedWrite
	for _, qw := range pending {
		if err := d.attempt(ctx, qw.fn); err != nil {
			d.logger.Warn(ctx, "replay entry failed", "key", qw.key, "error", err.Error())
			if !api.IsTerminal(err) {
				remaining = append(remaining, qw)
			}
			d.notifyReplayFailure(qw.key, err)
			continue
		}
	}

	if len(remaining) > 0 {
		d.mu.Lock()
		// New writes may have been queued during replay; keep replay
		// survivors ahead of them, coalescing duplicated keys in favor of
		// the newer entry.
		merged := remaining
		for _, qw := range d.queue {
			replaced := false
			for _, r := range merged {
				if r.key == qw.key {
					r.fn = qw.fn
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, qw)
			}
		}
		d.queue = merged
		d.mu.Unlock()
	}
}

// QueueLen returns the number of queued writes.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
