package salat

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so streaks, reminders and sync timestamps
// are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in local time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator produces identifiers for sync passes so their log lines can be
// correlated.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
