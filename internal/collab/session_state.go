package collab

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maheswari8074/3d-transformations/internal/document"
	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/transform"
)

var ErrUnboundKey = errors.New("key is not bound to a transform")

// SessionState holds the authoritative transform state for a session.
// Every compose or reset runs under mu, so readers never observe a model
// whose points have not been recomputed yet.
type SessionState struct {
	mu        sync.Mutex
	state     *transform.State
	keys      engine.KeyMap
	serverSeq int64
	applied   int
	version   int  // last persisted snapshot version
	dirty     bool // changed since last save
}

// NewSessionState creates a session state over fixture with an identity model.
func NewSessionState(fixture transform.Fixture, keys engine.KeyMap) *SessionState {
	return &SessionState{
		state: transform.New(fixture),
		keys:  keys,
	}
}

// Restore loads a persisted snapshot. It is called once, before the state
// is shared.
func (ss *SessionState) Restore(snap *document.Snapshot) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err := snap.Restore(ss.state); err != nil {
		return err
	}
	ss.applied = snap.Applied
	ss.version = snap.Version
	ss.dirty = false
	return nil
}

// Apply applies req and returns the new server sequence and state.
func (ss *SessionState) Apply(req transform.Request) (int64, engine.StateSnapshot, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.applyLocked(req); err != nil {
		return 0, engine.StateSnapshot{}, err
	}
	return ss.serverSeq, engine.NewStateSnapshot(ss.state, ss.applied), nil
}

// ApplyKey maps key through the session's key bindings and applies it.
func (ss *SessionState) ApplyKey(key string) (transform.Request, int64, engine.StateSnapshot, error) {
	req, ok := ss.keys.Lookup(key)
	if !ok {
		return transform.Request{}, 0, engine.StateSnapshot{}, fmt.Errorf("%w: %q", ErrUnboundKey, key)
	}
	seq, snap, err := ss.Apply(req)
	return req, seq, snap, err
}

// ApplyAll validates every request first and then applies them in order,
// each as its own compose, under a single lock. Either all are applied or
// none are.
func (ss *SessionState) ApplyAll(reqs []transform.Request) (int64, engine.StateSnapshot, error) {
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return 0, engine.StateSnapshot{}, fmt.Errorf("request %d: %w", i, err)
		}
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, req := range reqs {
		// Already validated; cannot fail.
		_ = ss.applyLocked(req)
	}
	return ss.serverSeq, engine.NewStateSnapshot(ss.state, ss.applied), nil
}

func (ss *SessionState) applyLocked(req transform.Request) error {
	if err := req.ApplyTo(ss.state); err != nil {
		return err
	}
	if req.IsReset() {
		ss.applied = 0
	} else {
		ss.applied++
	}
	ss.serverSeq++
	ss.dirty = true
	return nil
}

// Snapshot returns the current sequence and state.
func (ss *SessionState) Snapshot() (int64, engine.StateSnapshot) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.serverSeq, engine.NewStateSnapshot(ss.state, ss.applied)
}

// Points returns the current transformed points.
func (ss *SessionState) Points() transform.Fixture {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.state.Points()
}

// Dirty reports whether the state changed since the last save.
func (ss *SessionState) Dirty() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.dirty
}

// takeSnapshot returns a document snapshot for saving if the state is
// dirty, bumping the version and clearing the dirty flag.
func (ss *SessionState) takeSnapshot(sessionID string) (*document.Snapshot, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.dirty {
		return nil, false
	}
	ss.version++
	ss.dirty = false
	return document.NewSnapshot(sessionID, ss.version, ss.state.Model(), ss.applied), true
}

// markDirty re-flags the state after a failed save.
func (ss *SessionState) markDirty() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.dirty = true
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
