package salat

import (
	"context"
	"sync"
	"time"
)

const (
	pendingSyncKey = "salat_pending_sync"
	lastSyncKey    = "salat_last_sync"
)

// SyncState is the session-scoped synchronization state handed to the
// Reconciler. The pending flag and last-sync timestamp are persisted; the
// latch and in-flight guard live only as long as the session.
type SyncState struct {
	kv     KeyValueStore
	clock  Clock
	logger Logger

	mu       sync.Mutex
	synced   bool
	inFlight bool
	dirty    bool
}

// NewSyncState creates a fresh session state backed by kv.
func NewSyncState(kv KeyValueStore, clock Clock, logger Logger) *SyncState {
	return &SyncState{kv: kv, clock: clock, logger: logger}
}

// HasSynced reports whether a reconciliation pass completed in this session.
func (s *SyncState) HasSynced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Reset clears the in-memory latch. Persisted state is untouched.
func (s *SyncState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = false
}

// Pending reports whether local writes are waiting to be reconciled.
func (s *SyncState) Pending(ctx context.Context) bool {
	v, ok, err := s.kv.Get(ctx, pendingSyncKey)
	if err != nil {
		s.logger.Warn("reading pending sync flag failed", "error", err)
		return false
	}
	return ok && v == "true"
}

// MarkPending records that a local write has not reached the remote store.
func (s *SyncState) MarkPending(ctx context.Context) {
	s.NoteWrite()
	if err := s.kv.Set(ctx, pendingSyncKey, "true"); err != nil {
		s.logger.Warn("writing pending sync flag failed", "error", err)
	}
}

// NoteWrite tells the state a local write happened. A write that lands while
// a pass is running keeps the pending flag set after that pass completes.
func (s *SyncState) NoteWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		s.dirty = true
	}
}

// LastSynced returns the time of the last successful pass.
func (s *SyncState) LastSynced(ctx context.Context) (time.Time, bool) {
	v, ok, err := s.kv.Get(ctx, lastSyncKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *SyncState) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	s.dirty = false
	return true
}

func (s *SyncState) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// complete records a successful pass.
func (s *SyncState) complete(ctx context.Context) {
	s.mu.Lock()
	s.synced = true
	dirty := s.dirty
	s.mu.Unlock()

	if !dirty {
		if err := s.kv.Delete(ctx, pendingSyncKey); err != nil {
			s.logger.Warn("clearing pending sync flag failed", "error", err)
		}
	}
	if err := s.kv.Set(ctx, lastSyncKey, s.clock.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		s.logger.Warn("writing last sync time failed", "error", err)
	}
}
