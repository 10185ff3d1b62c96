package salat

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultSehriOffsetMinutes is the safety margin subtracted from the
// provider's Fajr time to obtain the Sehri end. It matches the provider's own
// Imsak convention.
const DefaultSehriOffsetMinutes = 10

// providerDateLayout is the DD-MM-YYYY form the provider uses for PrayerDay.Date.
const providerDateLayout = "02-01-2006"

// PrayerDay is one provider calendar entry. Clock times are HH:MM, 24-hour,
// local to the queried coordinate.
type PrayerDay struct {
	Date          string `json:"date"`
	HijriDate     string `json:"hijriDate"`
	HijriDay      string `json:"hijriDay"`
	HijriMonth    string `json:"hijriMonth"`
	HijriYear     string `json:"hijriYear"`
	GregorianDate string `json:"gregorianDate"`
	SehriEnd      string `json:"sehriEnd"`
	IftarStart    string `json:"iftarStart"`
	Imsak         string `json:"imsak,omitempty"`
	Fajr          string `json:"fajr"`
	Sunrise       string `json:"sunrise"`
	Dhuhr         string `json:"dhuhr"`
	Asr           string `json:"asr"`
	Maghrib       string `json:"maghrib"`
	Isha          string `json:"isha"`
}

// CalendarDate parses the provider's DD-MM-YYYY date.
func (d PrayerDay) CalendarDate() (Date, error) {
	t, err := time.Parse(providerDateLayout, d.Date)
	if err != nil {
		return Date{}, fmt.Errorf("parsing provider date %q: %w", d.Date, err)
	}
	return DateOf(t), nil
}

// At returns the instant of clock time hhmm on this day in loc.
func (d PrayerDay) At(hhmm string, loc *time.Location) (time.Time, error) {
	date, err := d.CalendarDate()
	if err != nil {
		return time.Time{}, err
	}
	mins, err := parseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year, date.Month, date.Day, mins/60, mins%60, 0, 0, loc), nil
}

// MonthRequest identifies one provider month for one coordinate.
type MonthRequest struct {
	Location Location
	Year     int
	Month    time.Month
}

// PrayerTimeProvider is the external prayer-time calculation service.
type PrayerTimeProvider interface {
	// FetchMonth returns one entry per day of the requested month. Times are
	// already normalised to HH:MM.
	FetchMonth(ctx context.Context, req MonthRequest) ([]PrayerDay, error)
}

var timeAnnotation = regexp.MustCompile(`\s*\(.*\)`)

// CleanTime strips the parenthetical zone label the provider appends to a
// clock time: "04:32 (+06)" becomes "04:32".
func CleanTime(s string) string {
	return strings.TrimSpace(timeAnnotation.ReplaceAllString(s, ""))
}

// SehriCutoff returns fajr minus offsetMinutes as HH:MM. wrapped reports that
// the result fell on the previous calendar day.
func SehriCutoff(fajr string, offsetMinutes int) (cutoff string, wrapped bool, err error) {
	mins, err := parseClock(CleanTime(fajr))
	if err != nil {
		return "", false, err
	}
	mins -= offsetMinutes
	for mins < 0 {
		mins += 24 * 60
		wrapped = true
	}
	mins %= 24 * 60
	return formatClock(mins), wrapped, nil
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

func formatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// RamadanDays keeps the entries whose Hijri month is Ramadan and drops the
// first skip of them, for regions that begin the fast a day after the
// calculated start.
func RamadanDays(days []PrayerDay, skip int) []PrayerDay {
	var out []PrayerDay
	for _, d := range days {
		if strings.Contains(strings.ToLower(d.HijriMonth), "ramad") {
			out = append(out, d)
		}
	}
	if skip >= len(out) {
		return nil
	}
	return out[skip:]
}

// FindDay returns the entry for date, if the calendar contains it.
func FindDay(days []PrayerDay, date Date) (PrayerDay, bool) {
	for _, d := range days {
		if cd, err := d.CalendarDate(); err == nil && cd == date {
			return d, true
		}
	}
	return PrayerDay{}, false
}

// PrayerTimeCache serves provider months from the device store with
// stale-while-revalidate semantics.
type PrayerTimeCache struct {
	kv             KeyValueStore
	provider       PrayerTimeProvider
	logger         Logger
	sehriOffset    int
	refreshTimeout time.Duration

	refreshes sync.WaitGroup
}

// NewPrayerTimeCache creates a cache over kv that refreshes from provider.
// sehriOffset is subtracted from Fajr to derive SehriEnd on every fetch.
func NewPrayerTimeCache(kv KeyValueStore, provider PrayerTimeProvider, logger Logger, sehriOffset int, refreshTimeout time.Duration) *PrayerTimeCache {
	return &PrayerTimeCache{
		kv:             kv,
		provider:       provider,
		logger:         logger,
		sehriOffset:    sehriOffset,
		refreshTimeout: refreshTimeout,
	}
}

// PrayerCacheKey is the storage key for one (location, year, month).
// Coordinates are rounded to two decimals.
func PrayerCacheKey(loc Location, year int, month time.Month) string {
	return fmt.Sprintf("prayer_cache_%.2f_%.2f_%d_%d", loc.Latitude, loc.Longitude, year, int(month))
}

// MonthTimes is the result of PrayerTimeCache.FetchMonth. When served from
// the cache, Days is the placeholder and a refresh is running in the
// background; Await blocks until it settles.
type MonthTimes struct {
	Key       string
	FromCache bool

	mu        sync.Mutex
	days      []PrayerDay
	refreshed bool
	done      chan struct{}
}

// Days returns the freshest entries known so far.
func (m *MonthTimes) Days() []PrayerDay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.days
}

// Refreshed reports whether a background refresh replaced the placeholder.
func (m *MonthTimes) Refreshed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshed
}

// Await waits for the background refresh, if any, and returns the freshest
// entries. A failed refresh leaves the stale cache authoritative. If ctx ends
// first the current placeholder is returned.
func (m *MonthTimes) Await(ctx context.Context) []PrayerDay {
	select {
	case <-m.done:
	case <-ctx.Done():
	}
	return m.Days()
}

func (m *MonthTimes) settle(days []PrayerDay) {
	m.mu.Lock()
	if days != nil {
		m.days = days
		m.refreshed = true
	}
	m.mu.Unlock()
	close(m.done)
}

// FetchMonth returns the month's entries for loc. A cached copy is returned
// at once and revalidated in the background. Without a cached copy the
// provider is called synchronously and a failure is returned as *ProviderError.
func (c *PrayerTimeCache) FetchMonth(ctx context.Context, loc Location, year int, month time.Month) (*MonthTimes, error) {
	if !loc.Valid() {
		return nil, ErrLocationUnset
	}

	key := PrayerCacheKey(loc, year, month)
	req := MonthRequest{Location: loc, Year: year, Month: month}

	if cached, ok := c.load(ctx, key); ok {
		mt := &MonthTimes{Key: key, FromCache: true, days: cached, done: make(chan struct{})}
		c.refreshes.Go(func() { c.revalidate(context.WithoutCancel(ctx), mt, req) })
		return mt, nil
	}

	days, err := c.fetch(ctx, key, req)
	if err != nil {
		return nil, &ProviderError{Key: key, Err: err}
	}
	mt := &MonthTimes{Key: key, days: days, refreshed: true, done: make(chan struct{})}
	close(mt.done)
	return mt, nil
}

// Wait blocks until every background refresh has finished. Call it before
// closing the store the cache writes to.
func (c *PrayerTimeCache) Wait() {
	c.refreshes.Wait()
}

func (c *PrayerTimeCache) revalidate(ctx context.Context, mt *MonthTimes, req MonthRequest) {
	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}

	days, err := c.fetch(ctx, mt.Key, req)
	if err != nil {
		c.logger.Warn("prayer time refresh failed, serving cached copy", "key", mt.Key, "error", err)
		mt.settle(nil)
		return
	}
	mt.settle(days)
}

// fetch calls the provider, derives SehriEnd and overwrites the cache entry.
func (c *PrayerTimeCache) fetch(ctx context.Context, key string, req MonthRequest) ([]PrayerDay, error) {
	days, err := c.provider.FetchMonth(ctx, req)
	if err != nil {
		return nil, err
	}

	for i := range days {
		if days[i].IftarStart == "" {
			days[i].IftarStart = days[i].Maghrib
		}
		cutoff, _, err := SehriCutoff(days[i].Fajr, c.sehriOffset)
		if err != nil {
			c.logger.Warn("cannot derive sehri end", "date", days[i].Date, "error", err)
			continue
		}
		days[i].SehriEnd = cutoff
	}

	data, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("encoding prayer times: %w", err)
	}
	if err := c.kv.Set(ctx, key, string(data)); err != nil {
		c.logger.Warn("writing prayer time cache failed", "key", key, "error", err)
	}
	return days, nil
}

func (c *PrayerTimeCache) load(ctx context.Context, key string) ([]PrayerDay, bool) {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.logger.Warn("reading prayer time cache failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var days []PrayerDay
	if err := json.Unmarshal([]byte(raw), &days); err != nil || len(days) == 0 {
		c.logger.Warn("ignoring unreadable prayer time cache", "key", key)
		return nil, false
	}
	return days, true
}
