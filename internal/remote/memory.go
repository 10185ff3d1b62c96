package remote

import (
	"context"
	"sync"

	"salat-go/internal/salat"
)

// MemoryStore is an in-memory RemoteStore, keyed by (user, date).
// It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]map[salat.Date]salat.DayRecord
}

var _ salat.RemoteStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]map[salat.Date]salat.DayRecord)}
}

func (m *MemoryStore) Select(ctx context.Context, userID string, from, to salat.Date) ([]salat.DayRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []salat.DayRecord
	for date, rec := range m.rows[userID] {
		if inRange(date, from, to) {
			out = append(out, rec)
		}
	}
	salat.SortRecords(out)
	return out, nil
}

// Upsert replaces every field of each (user, date) row.
func (m *MemoryStore) Upsert(ctx context.Context, userID string, records []salat.DayRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.rows[userID]
	if rows == nil {
		rows = make(map[salat.Date]salat.DayRecord)
		m.rows[userID] = rows
	}
	for _, rec := range records {
		rows[rec.Date] = rec
	}
	return nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(context.Context) error {
	return nil
}

// inRange reports whether date lies in [from, to]; zero bounds are open.
func inRange(date, from, to salat.Date) bool {
	if !from.IsZero() && date.Before(from) {
		return false
	}
	if !to.IsZero() && date.After(to) {
		return false
	}
	return true
}
