// Package sync turns a rapid stream of local edits into a minimal number of
// durable writes: per-channel debounced coalescing, an offline dispatch queue
// with bounded retry, and a save-state machine for the consuming UI.
package sync

import (
	"sync"
	"time"
)

// SaveState is the UI-visible persistence state of one channel.
type SaveState string

const (
	// StateIdle means no save has been attempted yet.
	StateIdle SaveState = "idle"
	// StateSaving means a write is in flight.
	StateSaving SaveState = "saving"
	// StateSaved means the last write was confirmed by the server.
	StateSaved SaveState = "saved"
	// StateQueued means the last write was accepted optimistically while
	// offline: locally durable, not yet confirmed.
	StateQueued SaveState = "queued"
	// StateError means the last write exhausted retries or failed terminally.
	StateError SaveState = "error"
)

// ChannelState is the reported state of one channel plus the retained
// failure reason.
type ChannelState struct {
	State     SaveState
	Reason    string
	ChangedAt time.Time
}

// Reporter tracks per-channel save state. There is no terminal state; any
// state transitions back to saving on the next attempt. The failure reason is
// retained across subsequent saving states until a save succeeds.
type Reporter struct {
	mu       sync.Mutex
	states   map[Channel]ChannelState
	onChange func(Channel, ChannelState)
}

// NewReporter constructs a Reporter. onChange may be nil; when set it is
// invoked after every transition, outside the internal lock.
func NewReporter(onChange func(Channel, ChannelState)) *Reporter {
	return &Reporter{
		states:   make(map[Channel]ChannelState),
		onChange: onChange,
	}
}

func (r *Reporter) set(ch Channel, state SaveState, reason string) {
	r.mu.Lock()
	cs := ChannelState{State: state, Reason: reason, ChangedAt: time.Now()}
	r.states[ch] = cs
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange(ch, cs)
	}
}

// SetSaving marks a write in flight. A prior failure reason is kept until the
// write succeeds.
func (r *Reporter) SetSaving(ch Channel) {
	r.mu.Lock()
	reason := r.states[ch].Reason
	r.mu.Unlock()
	r.set(ch, StateSaving, reason)
}

// SetSaved marks a confirmed write and clears the failure reason.
func (r *Reporter) SetSaved(ch Channel) {
	r.set(ch, StateSaved, "")
}

// SetQueued marks an optimistic offline acceptance.
func (r *Reporter) SetQueued(ch Channel) {
	r.set(ch, StateQueued, "")
}

// SetError marks a failed write, retaining reason until the next success.
func (r *Reporter) SetError(ch Channel, reason string) {
	r.set(ch, StateError, reason)
}

// State returns the current state of ch (StateIdle when never reported).
func (r *Reporter) State(ch Channel) ChannelState {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.states[ch]
	if !ok {
		return ChannelState{State: StateIdle}
	}
	return cs
}
