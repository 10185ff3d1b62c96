package salat

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInProgress is returned when a reconciliation pass is already running.
	ErrSyncInProgress = errors.New("reconciliation already in progress")

	// ErrNotSignedIn is returned by operations that need an authenticated user.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrLocationUnset is returned when prayer times are requested before a
	// location has been chosen.
	ErrLocationUnset = errors.New("location not set")
)

// ProviderError reports a prayer-time fetch that failed with no cached
// fallback. It is the only failure surfaced to the presentation layer.
type ProviderError struct {
	Key string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("fetching prayer times for %s: %v", e.Key, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
