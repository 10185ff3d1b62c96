package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salat-go/internal/salat"
)

const (
	missedNudgePrefix = "missed_nudge_"
	// MissedIDBase offsets missed-prayer nudge ids from calendar reminders.
	MissedIDBase = 3000
)

// DispatcherOptions tunes a Dispatcher.
type DispatcherOptions struct {
	Interval      time.Duration
	MissedPrayers bool
}

// Dispatcher delivers due reminders and missed-prayer nudges on a ticker.
type Dispatcher struct {
	notifier *StoreNotifier
	sender   Sender
	store    *salat.DayStore
	kv       salat.KeyValueStore
	clock    salat.Clock
	logger   salat.Logger
	opts     DispatcherOptions
}

// NewDispatcher creates a Dispatcher. store and kv are only used for
// missed-prayer nudges.
func NewDispatcher(notifier *StoreNotifier, sender Sender, store *salat.DayStore, kv salat.KeyValueStore, clock salat.Clock, logger salat.Logger, opts DispatcherOptions) *Dispatcher {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	return &Dispatcher{
		notifier: notifier,
		sender:   sender,
		store:    store,
		kv:       kv,
		clock:    clock,
		logger:   logger,
		opts:     opts,
	}
}

// Run ticks until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.Tick(ctx); err != nil {
			d.logger.Warn("reminder dispatch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick delivers everything due now and returns how many were sent. A reminder
// whose delivery fails stays pending for the next tick.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.clock.Now()
	due, err := d.notifier.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range due {
		if err := d.sender.Send(ctx, r); err != nil {
			d.logger.Warn("reminder delivery failed", "id", r.ID, "error", err)
			continue
		}
		if err := d.notifier.Cancel(ctx, []int{r.ID}); err != nil {
			return sent, err
		}
		d.logger.Debug("reminder delivered", "id", r.ID, "late", now.Sub(r.FiresAt).Round(time.Second))
		sent++
	}

	if d.opts.MissedPrayers {
		n, err := d.nudgeMissed(ctx, now)
		sent += n
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

func nudgeKey(date salat.Date, p salat.Prayer) string {
	return missedNudgePrefix + date.String() + "_" + string(p)
}

// nudgeMissed sends at most one nudge per prayer per day.
func (d *Dispatcher) nudgeMissed(ctx context.Context, now time.Time) (int, error) {
	today := salat.DateOf(now)
	record := d.store.GetOrEmpty(ctx, today)

	sent := 0
	for _, p := range salat.MissedPrayers(now, record) {
		key := nudgeKey(today, p)
		if _, ok, err := d.kv.Get(ctx, key); err != nil {
			return sent, fmt.Errorf("reading nudge state: %w", err)
		} else if ok {
			continue
		}

		name := strings.ToUpper(string(p[:1])) + string(p[1:])
		nudge := salat.Reminder{
			ID:      MissedIDBase + today.Day*10 + prayerIndex(p),
			Title:   fmt.Sprintf("Did you pray %s?", name),
			Body:    fmt.Sprintf("%s is not marked for %s yet.", name, today),
			FiresAt: now,
			Channel: salat.ChannelPrayer,
		}
		if err := d.sender.Send(ctx, nudge); err != nil {
			d.logger.Warn("missed prayer nudge failed", "prayer", string(p), "error", err)
			continue
		}
		if err := d.kv.Set(ctx, key, now.UTC().Format(time.RFC3339)); err != nil {
			return sent, fmt.Errorf("recording nudge: %w", err)
		}
		sent++
	}
	return sent, nil
}

func prayerIndex(p salat.Prayer) int {
	for i, c := range salat.CanonicalPrayers {
		if c == p {
			return i
		}
	}
	return 0
}
