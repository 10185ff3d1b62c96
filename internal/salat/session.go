package salat

import (
	"context"
	"errors"
	"sync"
)

// Session reacts to auth and connectivity events and decides when a
// reconciliation pass runs: once per sign-in, and again on reconnect while
// writes are pending.
type Session struct {
	reconciler *Reconciler
	state      *SyncState
	logger     Logger

	mu     sync.Mutex
	userID string
}

// NewSession creates a signed-out session.
func NewSession(reconciler *Reconciler, state *SyncState, logger Logger) *Session {
	return &Session{reconciler: reconciler, state: state, logger: logger}
}

// UserID returns the signed-in user, or "".
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// State returns the session's sync state.
func (s *Session) State() *SyncState {
	return s.state
}

// Attach seeds the session from auth and follows its changes until the
// returned func is called.
func (s *Session) Attach(ctx context.Context, auth AuthProvider) (func(), error) {
	userID, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	unsubscribe := auth.Subscribe(func(id string) {
		s.OnAuthChange(ctx, id)
	})
	s.OnAuthChange(ctx, userID)
	return unsubscribe, nil
}

// OnAuthChange handles a session transition. Signing in runs the
// once-per-session reconciliation; signing out resets the latch.
func (s *Session) OnAuthChange(ctx context.Context, userID string) {
	s.mu.Lock()
	prev := s.userID
	s.userID = userID
	s.mu.Unlock()

	if userID == "" {
		if prev != "" {
			s.state.Reset()
			s.logger.Info("signed out, sync latch reset", "user", prev)
		}
		return
	}
	if prev != userID {
		s.state.Reset()
	}
	if s.state.HasSynced() {
		return
	}
	s.run(ctx, userID)
}

// OnReconnect runs a pass when writes are pending and a user is signed in.
func (s *Session) OnReconnect(ctx context.Context) {
	userID := s.UserID()
	if userID == "" || !s.state.Pending(ctx) {
		return
	}
	s.run(ctx, userID)
}

// SyncNow runs a pass regardless of the latch and returns its outcome.
func (s *Session) SyncNow(ctx context.Context) (Plan, error) {
	userID := s.UserID()
	if userID == "" {
		return Plan{}, ErrNotSignedIn
	}
	return s.reconciler.Reconcile(ctx, userID, s.state)
}

func (s *Session) run(ctx context.Context, userID string) {
	_, err := s.reconciler.Reconcile(ctx, userID, s.state)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		s.logger.Debug("reconciliation skipped, pass in flight", "user", userID)
	default:
		s.logger.Warn("reconciliation failed, will retry on reconnect", "user", userID, "error", err)
	}
}
