package salat

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// currentLocationKey holds the last chosen location in the device store.
const currentLocationKey = "location_current"

// Location is a coordinate the prayer-time provider can be queried for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Valid reports whether the coordinate is in range and set. The origin is
// treated as unset.
func (l Location) Valid() bool {
	if l.Latitude == 0 && l.Longitude == 0 {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Point returns the orb view of l (longitude first).
func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// DistanceKm is the great-circle distance between l and other.
func (l Location) DistanceKm(other Location) float64 {
	return geo.Distance(l.Point(), other.Point()) / 1000
}

func (l Location) String() string {
	if l.Name != "" {
		return fmt.Sprintf("%s (%.4f, %.4f)", l.Name, l.Latitude, l.Longitude)
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}

// LocationChange is delivered to LocationFeed subscribers.
type LocationChange struct {
	Previous Location
	Current  Location
}

// LocationFeed owns the current location and tells subscribers when it
// changes. It replaces any ambient "location updated" broadcast.
type LocationFeed struct {
	kv     KeyValueStore
	logger Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(context.Context, LocationChange)
}

// NewLocationFeed creates a feed persisting to kv.
func NewLocationFeed(kv KeyValueStore, logger Logger) *LocationFeed {
	return &LocationFeed{
		kv:     kv,
		logger: logger,
		subs:   make(map[int]func(context.Context, LocationChange)),
	}
}

// Current returns the stored location. ok is false when none has been chosen.
func (f *LocationFeed) Current(ctx context.Context) (Location, bool) {
	raw, ok, err := f.kv.Get(ctx, currentLocationKey)
	if err != nil {
		f.logger.Warn("reading location failed", "error", err)
		return Location{}, false
	}
	if !ok {
		return Location{}, false
	}
	var loc Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil || !loc.Valid() {
		return Location{}, false
	}
	return loc, true
}

// Subscribe registers fn for future changes. The returned func removes it.
func (f *LocationFeed) Subscribe(fn func(context.Context, LocationChange)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Publish stores loc and notifies subscribers synchronously, in
// registration order.
func (f *LocationFeed) Publish(ctx context.Context, loc Location) error {
	if !loc.Valid() {
		return fmt.Errorf("invalid location %s", loc)
	}
	prev, _ := f.Current(ctx)

	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encoding location: %w", err)
	}
	if err := f.kv.Set(ctx, currentLocationKey, string(data)); err != nil {
		return fmt.Errorf("storing location: %w", err)
	}

	f.mu.Lock()
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	fns := make([]func(context.Context, LocationChange), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, f.subs[id])
	}
	f.mu.Unlock()

	change := LocationChange{Previous: prev, Current: loc}
	for _, fn := range fns {
		fn(ctx, change)
	}
	return nil
}
