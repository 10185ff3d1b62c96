package salat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// dayKeyPrefix namespaces day records in the device key-value store.
const dayKeyPrefix = "salat_"

// DayStore is the local day-record store: one key per calendar date holding
// the seven flags as JSON. It never touches the network.
//
// Reads favour availability: a backend error or a corrupted value is logged
// and reported as "no record for this date".
type DayStore struct {
	kv     KeyValueStore
	logger Logger
}

// NewDayStore creates a DayStore on top of kv.
func NewDayStore(kv KeyValueStore, logger Logger) *DayStore {
	return &DayStore{kv: kv, logger: logger}
}

func dayKey(date Date) string {
	return dayKeyPrefix + date.String()
}

// Get returns the record for date. ok is false when nothing readable is stored.
func (s *DayStore) Get(ctx context.Context, date Date) (DayRecord, bool) {
	raw, ok, err := s.kv.Get(ctx, dayKey(date))
	if err != nil {
		s.logger.Warn("reading day record failed", "date", date.String(), "error", err)
		return DayRecord{}, false
	}
	if !ok {
		return DayRecord{}, false
	}
	var f recordFields
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		s.logger.Warn("corrupted day record ignored", "date", date.String(), "error", err)
		return DayRecord{}, false
	}
	return f.record(date), true
}

// GetOrEmpty returns the stored record for date or the all-false default.
func (s *DayStore) GetOrEmpty(ctx context.Context, date Date) DayRecord {
	if r, ok := s.Get(ctx, date); ok {
		return r
	}
	return NewDayRecord(date)
}

// GetAll returns every readable record, ascending by date.
func (s *DayStore) GetAll(ctx context.Context) []DayRecord {
	return s.GetRange(ctx, Date{}, Date{})
}

// GetRange returns readable records with start <= date <= end, ascending.
// A zero start or end leaves that side open.
func (s *DayStore) GetRange(ctx context.Context, start, end Date) []DayRecord {
	keys, err := s.kv.Keys(ctx, dayKeyPrefix)
	if err != nil {
		s.logger.Warn("listing day records failed", "error", err)
		return nil
	}

	var records []DayRecord
	for _, key := range keys {
		date, err := ParseDate(strings.TrimPrefix(key, dayKeyPrefix))
		if err != nil {
			// Another feature's key that happens to share the prefix.
			continue
		}
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}
		if r, ok := s.Get(ctx, date); ok {
			records = append(records, r)
		}
	}
	// Keys come back sorted and ISO dates sort lexically, so records are ascending.
	return records
}

// Set applies patch on top of the current record (or the default) and stores
// the result.
func (s *DayStore) Set(ctx context.Context, date Date, patch Patch) (DayRecord, error) {
	updated := patch.Apply(s.GetOrEmpty(ctx, date))
	if err := s.Put(ctx, updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// Put overwrites the whole record for r.Date.
func (s *DayStore) Put(ctx context.Context, r DayRecord) error {
	data, err := json.Marshal(fieldsOf(r))
	if err != nil {
		return fmt.Errorf("encoding day record: %w", err)
	}
	if err := s.kv.Set(ctx, dayKey(r.Date), string(data)); err != nil {
		return fmt.Errorf("writing day record %s: %w", r.Date, err)
	}
	return nil
}

// Reset rewrites every field of date to false.
func (s *DayStore) Reset(ctx context.Context, date Date) error {
	return s.Put(ctx, NewDayRecord(date))
}
