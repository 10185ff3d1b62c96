package salat

import "context"

// KeyValueStore is the device's durable string storage.
// Every piece of local state (day records, cached provider responses, sync
// flags, pending reminders, dismissed banners) lives under its own key.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// RemoteStore is the account database mirror of the day records.
// Rows are addressed by the (userID, date) composite key.
type RemoteStore interface {
	// Select returns the user's records with from <= date <= to, ordered by
	// date ascending. A zero from or to leaves that side of the range open.
	Select(ctx context.Context, userID string, from, to Date) ([]DayRecord, error)

	// Upsert writes all records in one batch with conflict target
	// (userID, date). Repeating the same upsert is harmless.
	Upsert(ctx context.Context, userID string, records []DayRecord) error

	// ValidateSetup verifies the backend is reachable and configured.
	ValidateSetup(ctx context.Context) error
}

// AuthProvider supplies the signed-in user, if any, and announces changes.
type AuthProvider interface {
	// CurrentUser returns the signed-in user id, or "" when signed out.
	CurrentUser(ctx context.Context) (string, error)

	// Subscribe registers fn to be called with the new user id ("" on sign
	// out) whenever the session changes. The returned func unsubscribes.
	Subscribe(fn func(userID string)) (unsubscribe func())
}
