package testutil

import (
	"context"
	"sync"

	"salat-go/internal/salat"
)

// StubRemote is an in-memory salat.RemoteStore that records calls and can
// be told to fail.
type StubRemote struct {
	mu   sync.Mutex
	rows map[string]map[salat.Date]salat.DayRecord

	FailSelect bool
	FailUpsert bool

	SelectCalls int
	UpsertCalls int
	Upserted    [][]salat.DayRecord

	// OnSelect, when set, runs after the snapshot is taken and before
	// Select returns.
	OnSelect func()
}

var _ salat.RemoteStore = (*StubRemote)(nil)

func NewStubRemote() *StubRemote {
	return &StubRemote{rows: make(map[string]map[salat.Date]salat.DayRecord)}
}

// Seed stores records for userID without counting as an upsert.
func (r *StubRemote) Seed(userID string, records ...salat.DayRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(userID, records)
}

func (r *StubRemote) put(userID string, records []salat.DayRecord) {
	if r.rows[userID] == nil {
		r.rows[userID] = make(map[salat.Date]salat.DayRecord)
	}
	for _, rec := range records {
		r.rows[userID][rec.Date] = rec
	}
}

func (r *StubRemote) Select(_ context.Context, userID string, from, to salat.Date) ([]salat.DayRecord, error) {
	r.mu.Lock()
	r.SelectCalls++
	if r.FailSelect {
		r.mu.Unlock()
		return nil, ErrInjected
	}
	var out []salat.DayRecord
	for d, rec := range r.rows[userID] {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, rec)
	}
	hook := r.OnSelect
	r.mu.Unlock()

	salat.SortRecords(out)
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *StubRemote) Upsert(_ context.Context, userID string, records []salat.DayRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpsertCalls++
	if r.FailUpsert {
		return ErrInjected
	}
	r.Upserted = append(r.Upserted, append([]salat.DayRecord(nil), records...))
	r.put(userID, records)
	return nil
}

func (r *StubRemote) ValidateSetup(context.Context) error { return nil }

// Records returns userID's rows ascending by date.
func (r *StubRemote) Records(userID string) []salat.DayRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []salat.DayRecord
	for _, rec := range r.rows[userID] {
		out = append(out, rec)
	}
	salat.SortRecords(out)
	return out
}
