package salat

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Prayer identifies one of the seven tracked prayer fields.
type Prayer string

const (
	Fajr     Prayer = "fajr"
	Dhuhr    Prayer = "dhuhr"
	Asr      Prayer = "asr"
	Maghrib  Prayer = "maghrib"
	Isha     Prayer = "isha"
	Taraweeh Prayer = "taraweeh"
	Tahajjud Prayer = "tahajjud"
)

// CanonicalPrayers are the five daily obligatory prayers. Only these count
// toward perfect days and streaks.
var CanonicalPrayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}

// AllPrayers lists every tracked field, canonical prayers first.
var AllPrayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha, Taraweeh, Tahajjud}

// ParsePrayer resolves a case-insensitive prayer name.
func ParsePrayer(name string) (Prayer, error) {
	p := Prayer(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllPrayers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown prayer: %q", name)
}

// IsCanonical reports whether p is one of the five daily prayers.
func (p Prayer) IsCanonical() bool {
	for _, c := range CanonicalPrayers {
		if p == c {
			return true
		}
	}
	return false
}

// DayRecord holds the completion flags for one calendar date.
// The date is the natural key and never changes after creation.
type DayRecord struct {
	Date     Date
	Fajr     bool
	Dhuhr    bool
	Asr      bool
	Maghrib  bool
	Isha     bool
	Taraweeh bool
	Tahajjud bool
}

// NewDayRecord returns the all-false default record for date.
func NewDayRecord(date Date) DayRecord {
	return DayRecord{Date: date}
}

// Get returns the value of a single field.
func (r DayRecord) Get(p Prayer) bool {
	switch p {
	case Fajr:
		return r.Fajr
	case Dhuhr:
		return r.Dhuhr
	case Asr:
		return r.Asr
	case Maghrib:
		return r.Maghrib
	case Isha:
		return r.Isha
	case Taraweeh:
		return r.Taraweeh
	case Tahajjud:
		return r.Tahajjud
	}
	return false
}

// With returns a copy of r with field p set to v.
func (r DayRecord) With(p Prayer, v bool) DayRecord {
	switch p {
	case Fajr:
		r.Fajr = v
	case Dhuhr:
		r.Dhuhr = v
	case Asr:
		r.Asr = v
	case Maghrib:
		r.Maghrib = v
	case Isha:
		r.Isha = v
	case Taraweeh:
		r.Taraweeh = v
	case Tahajjud:
		r.Tahajjud = v
	}
	return r
}

// IsPerfect reports whether all five canonical prayers are done.
// Night prayers never affect this.
func (r DayRecord) IsPerfect() bool {
	return r.CanonicalCount() == len(CanonicalPrayers)
}

// CanonicalCount returns how many of the five canonical prayers are done.
func (r DayRecord) CanonicalCount() int {
	n := 0
	for _, p := range CanonicalPrayers {
		if r.Get(p) {
			n++
		}
	}
	return n
}

// Merge returns the field-wise logical OR of r and other, keeping r's date.
// A prayer marked complete on either side stays complete.
func (r DayRecord) Merge(other DayRecord) DayRecord {
	merged := r
	for _, p := range AllPrayers {
		merged = merged.With(p, r.Get(p) || other.Get(p))
	}
	return merged
}

// SameFields reports whether all seven fields of r and other are equal.
func (r DayRecord) SameFields(other DayRecord) bool {
	for _, p := range AllPrayers {
		if r.Get(p) != other.Get(p) {
			return false
		}
	}
	return true
}

// Patch is a partial field update. Fields not present are left unchanged.
type Patch map[Prayer]bool

// Apply returns r with the patch applied.
func (p Patch) Apply(r DayRecord) DayRecord {
	for prayer, v := range p {
		r = r.With(prayer, v)
	}
	return r
}

// recordFields is the persisted JSON shape of a DayRecord's flags.
type recordFields struct {
	Fajr     bool `json:"fajr"`
	Dhuhr    bool `json:"dhuhr"`
	Asr      bool `json:"asr"`
	Maghrib  bool `json:"maghrib"`
	Isha     bool `json:"isha"`
	Taraweeh bool `json:"taraweeh"`
	Tahajjud bool `json:"tahajjud"`
}

func fieldsOf(r DayRecord) recordFields {
	return recordFields{
		Fajr:     r.Fajr,
		Dhuhr:    r.Dhuhr,
		Asr:      r.Asr,
		Maghrib:  r.Maghrib,
		Isha:     r.Isha,
		Taraweeh: r.Taraweeh,
		Tahajjud: r.Tahajjud,
	}
}

func (f recordFields) record(date Date) DayRecord {
	return DayRecord{
		Date:     date,
		Fajr:     f.Fajr,
		Dhuhr:    f.Dhuhr,
		Asr:      f.Asr,
		Maghrib:  f.Maghrib,
		Isha:     f.Isha,
		Taraweeh: f.Taraweeh,
		Tahajjud: f.Tahajjud,
	}
}

type recordJSON struct {
	Date string `json:"date"`
	recordFields
}

// MarshalJSON encodes the record as a flat object with an ISO date.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{Date: r.Date.String(), recordFields: fieldsOf(r)})
}

// UnmarshalJSON decodes the flat object produced by MarshalJSON.
func (r *DayRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	*r = raw.recordFields.record(date)
	return nil
}

// SortRecords sorts records ascending by date in place.
func SortRecords(records []DayRecord) {
	slices.SortFunc(records, func(a, b DayRecord) int {
		return a.Date.Compare(b.Date)
	})
}
