package salat

import (
	"context"
	"time"
)

// Service is the tracking front door used by the CLI and any UI shell.
// Every write lands in the local store first; the remote store is an
// eventually consistent mirror reached optimistically when signed in.
type Service struct {
	store         *DayStore
	remote        RemoteStore
	session       *Session
	kv            KeyValueStore
	clock         Clock
	logger        Logger
	remoteTimeout time.Duration
}

// NewService creates a Service. remoteTimeout bounds each remote call.
func NewService(store *DayStore, remote RemoteStore, session *Session, kv KeyValueStore, clock Clock, logger Logger, remoteTimeout time.Duration) *Service {
	return &Service{
		store:         store,
		remote:        remote,
		session:       session,
		kv:            kv,
		clock:         clock,
		logger:        logger,
		remoteTimeout: remoteTimeout,
	}
}

// Today returns the current local calendar date.
func (s *Service) Today() Date {
	return Today(s.clock)
}

// Toggle sets a single prayer field for date.
func (s *Service) Toggle(ctx context.Context, date Date, prayer Prayer, done bool) DayRecord {
	return s.Update(ctx, date, Patch{prayer: done})
}

// Update applies patch to the record for date and returns the result.
// Remote failures only mark the record pending.
func (s *Service) Update(ctx context.Context, date Date, patch Patch) DayRecord {
	rec, err := s.store.Set(ctx, date, patch)
	if err != nil {
		s.logger.Warn("local write failed", "date", date.String(), "error", err)
	}
	s.push(ctx, rec)
	return rec
}

// Reset rewrites every field of date to false, locally and remotely.
func (s *Service) Reset(ctx context.Context, date Date) DayRecord {
	rec := NewDayRecord(date)
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.Warn("local reset failed", "date", date.String(), "error", err)
	}
	s.push(ctx, rec)
	return rec
}

func (s *Service) push(ctx context.Context, rec DayRecord) {
	state := s.session.State()
	state.NoteWrite()

	userID := s.session.UserID()
	if userID == "" {
		state.MarkPending(ctx)
		return
	}

	rctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.remote.Upsert(rctx, userID, []DayRecord{rec}); err != nil {
		s.logger.Warn("remote write failed, marked pending", "date", rec.Date.String(), "error", err)
		state.MarkPending(ctx)
	}
}

// Day returns the record for date. When signed in the remote copy is
// preferred; otherwise, or when the remote is unreachable, the local one.
func (s *Service) Day(ctx context.Context, date Date) DayRecord {
	if recs, ok := s.remoteRange(ctx, date, date); ok && len(recs) > 0 {
		return recs[0]
	}
	return s.store.GetOrEmpty(ctx, date)
}

// History returns records in [from, to] ascending. Zero bounds are open.
// The remote store is the source when signed in and reachable.
func (s *Service) History(ctx context.Context, from, to Date) []DayRecord {
	if recs, ok := s.remoteRange(ctx, from, to); ok {
		return recs
	}
	return s.store.GetRange(ctx, from, to)
}

// Streaks computes current and longest streaks over the full history.
func (s *Service) Streaks(ctx context.Context) StreakResult {
	return ComputeStreaks(s.History(ctx, Date{}, Date{}), s.Today())
}

func (s *Service) remoteRange(ctx context.Context, from, to Date) ([]DayRecord, bool) {
	userID := s.session.UserID()
	if userID == "" {
		return nil, false
	}
	rctx, cancel := s.bound(ctx)
	defer cancel()
	recs, err := s.remote.Select(rctx, userID, from, to)
	if err != nil {
		s.logger.Warn("remote read failed, using local history", "error", err)
		return nil, false
	}
	return recs, true
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.remoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.remoteTimeout)
}
