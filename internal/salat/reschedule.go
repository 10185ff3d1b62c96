package salat

import (
	"context"
	"fmt"
	"time"
)

// MonthsFrom returns the whole calendar of today's month and the following
// one for loc, waiting for any background refresh.
func (c *PrayerTimeCache) MonthsFrom(ctx context.Context, loc Location, today Date) ([]PrayerDay, error) {
	next := time.Date(today.Year, today.Month+1, 1, 12, 0, 0, 0, time.UTC)

	var out []PrayerDay
	for _, ym := range []struct {
		year  int
		month time.Month
	}{{today.Year, today.Month}, {next.Year(), next.Month()}} {
		mt, err := c.FetchMonth(ctx, loc, ym.year, ym.month)
		if err != nil {
			return nil, err
		}
		out = append(out, mt.Await(ctx)...)
	}
	return out, nil
}

// UpcomingDays drops the entries before today.
func UpcomingDays(days []PrayerDay, today Date) []PrayerDay {
	var out []PrayerDay
	for _, d := range days {
		date, err := d.CalendarDate()
		if err != nil || date.Before(today) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Rescheduler re-creates reminders when the location moves far enough to
// change prayer times.
type Rescheduler struct {
	cache       *PrayerTimeCache
	scheduler   *ReminderScheduler
	clock       Clock
	logger      Logger
	thresholdKm float64
	shift       int
	enabled     bool
}

// NewRescheduler creates a Rescheduler. Moves shorter than thresholdKm are
// ignored. Only Ramadan days are scheduled, less the first ramadanShift.
func NewRescheduler(cache *PrayerTimeCache, scheduler *ReminderScheduler, clock Clock, logger Logger, thresholdKm float64, ramadanShift int, enabled bool) *Rescheduler {
	return &Rescheduler{
		cache:       cache,
		scheduler:   scheduler,
		clock:       clock,
		logger:      logger,
		thresholdKm: thresholdKm,
		shift:       ramadanShift,
		enabled:     enabled,
	}
}

// Follow subscribes the rescheduler to feed.
func (r *Rescheduler) Follow(feed *LocationFeed) func() {
	return feed.Subscribe(func(ctx context.Context, change LocationChange) {
		if _, err := r.OnLocationChange(ctx, change); err != nil {
			r.logger.Warn("rescheduling reminders failed", "location", change.Current.String(), "error", err)
		}
	})
}

// OnLocationChange reschedules for change.Current unless the move is below
// the threshold. It reports whether a reschedule happened.
func (r *Rescheduler) OnLocationChange(ctx context.Context, change LocationChange) (bool, error) {
	if !r.enabled {
		return false, nil
	}
	if change.Previous.Valid() {
		if dist := change.Previous.DistanceKm(change.Current); dist < r.thresholdKm {
			r.logger.Debug("location change below threshold", "km", dist)
			return false, nil
		}
	}
	n, err := r.Reschedule(ctx, change.Current)
	if err != nil {
		return false, err
	}
	r.logger.Info("reminders rescheduled for new location", "location", change.Current.String(), "count", n)
	return true, nil
}

// Reschedule fetches the calendar for loc and schedules the upcoming
// fasting days. Outside Ramadan nothing is scheduled.
func (r *Rescheduler) Reschedule(ctx context.Context, loc Location) (int, error) {
	today := Today(r.clock)
	days, err := r.cache.MonthsFrom(ctx, loc, today)
	if err != nil {
		return 0, fmt.Errorf("loading calendar: %w", err)
	}
	fasting := UpcomingDays(RamadanDays(days, r.shift), today)
	return r.scheduler.ScheduleAll(ctx, fasting, r.enabled)
}
