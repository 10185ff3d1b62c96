package salat

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Channel groups reminders for the delivery platform.
type Channel string

const (
	ChannelSehri  Channel = "sehri"
	ChannelIftar  Channel = "iftar"
	ChannelPrayer Channel = "prayer"
)

// Reminder ids are kind offset + index within the supplied calendar, so the
// same calendar always yields the same ids.
const (
	SehriIDBase = 1000
	IftarIDBase = 2000
)

// Reminder is a timed local notification.
type Reminder struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FiresAt time.Time `json:"fires_at"`
	Channel Channel   `json:"channel"`
}

// Notifier is the device notification subsystem.
type Notifier interface {
	// RequestPermission asks for, or reports, permission to notify.
	RequestPermission(ctx context.Context) (bool, error)

	// Pending returns every reminder not yet delivered.
	Pending(ctx context.Context) ([]Reminder, error)

	// Cancel removes the pending reminders with the given ids.
	Cancel(ctx context.Context, ids []int) error

	// ScheduleBatch adds reminders, replacing any pending one with the same id.
	ScheduleBatch(ctx context.Context, reminders []Reminder) error

	// MaxPending is the platform limit on pending reminders. Zero means no limit.
	MaxPending() int
}

// Default reminder scheduling parameters.
const (
	DefaultSehriLead = 15 * time.Minute
	DefaultBatchSize = 60
)

// ReminderOptions tunes the ReminderScheduler.
type ReminderOptions struct {
	// SehriLead is how long before Sehri end the sehri reminder fires.
	SehriLead time.Duration
	// BatchSize is the number of reminders per ScheduleBatch call.
	BatchSize int
	// Location interprets the calendar's clock times. Nil means time.Local.
	Location *time.Location
}

// ReminderScheduler turns a prayer calendar into sehri and iftar reminders.
// Each ScheduleAll fully replaces what it scheduled before.
type ReminderScheduler struct {
	notifier Notifier
	clock    Clock
	logger   Logger
	opts     ReminderOptions
}

// NewReminderScheduler creates a scheduler. Zero options take the defaults.
func NewReminderScheduler(notifier Notifier, clock Clock, logger Logger, opts ReminderOptions) *ReminderScheduler {
	if opts.SehriLead <= 0 {
		opts.SehriLead = DefaultSehriLead
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &ReminderScheduler{notifier: notifier, clock: clock, logger: logger, opts: opts}
}

// Plan returns the reminders ScheduleAll would create for days at the
// current time, earliest first and capped at the notifier's limit.
func (s *ReminderScheduler) Plan(days []PrayerDay) []Reminder {
	now := s.clock.Now()
	var out []Reminder
	for i, day := range days {
		if sehriEnd, err := day.At(day.SehriEnd, s.opts.Location); err != nil {
			s.logger.Warn("skipping sehri reminder", "date", day.Date, "error", err)
		} else if at := sehriEnd.Add(-s.opts.SehriLead); at.After(now) {
			out = append(out, Reminder{
				ID:      SehriIDBase + i,
				Title:   "Sehri Reminder",
				Body:    fmt.Sprintf("%d minutes until Sehri ends. Sehri ends at: %s", int(s.opts.SehriLead.Minutes()), day.SehriEnd),
				FiresAt: at,
				Channel: ChannelSehri,
			})
		}

		if iftar, err := day.At(day.IftarStart, s.opts.Location); err != nil {
			s.logger.Warn("skipping iftar reminder", "date", day.Date, "error", err)
		} else if iftar.After(now) {
			out = append(out, Reminder{
				ID:      IftarIDBase + i,
				Title:   "It's Iftar Time!",
				Body:    fmt.Sprintf("Time to break your fast. Iftar at: %s.", day.IftarStart),
				FiresAt: iftar,
				Channel: ChannelIftar,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b Reminder) int {
		return a.FiresAt.Compare(b.FiresAt)
	})
	if limit := s.notifier.MaxPending(); limit > 0 && len(out) > limit {
		s.logger.Info("dropping reminders beyond platform limit", "candidates", len(out), "limit", limit)
		out = out[:limit]
	}
	return out
}

// ScheduleAll replaces every pending sehri and iftar reminder with the ones
// derived from days. It does nothing when disabled or when permission is
// denied. It returns the number of reminders scheduled.
func (s *ReminderScheduler) ScheduleAll(ctx context.Context, days []PrayerDay, enabled bool) (int, error) {
	if !enabled || len(days) == 0 {
		return 0, nil
	}

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("notification permission request failed", "error", err)
		return 0, nil
	}
	if !granted {
		s.logger.Info("notification permission denied, reminders not scheduled")
		return 0, nil
	}

	if err := s.CancelAll(ctx); err != nil {
		return 0, err
	}

	reminders := s.Plan(days)
	for start := 0; start < len(reminders); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(reminders))
		if err := s.notifier.ScheduleBatch(ctx, reminders[start:end]); err != nil {
			return start, fmt.Errorf("scheduling reminders: %w", err)
		}
	}

	s.logger.Info("reminders scheduled", "count", len(reminders))
	return len(reminders), nil
}

// CancelAll removes every pending sehri and iftar reminder.
func (s *ReminderScheduler) CancelAll(ctx context.Context) error {
	pending, err := s.notifier.Pending(ctx)
	if err != nil {
		return fmt.Errorf("listing pending reminders: %w", err)
	}

	var ids []int
	for _, r := range pending {
		if r.Channel == ChannelSehri || r.Channel == ChannelIftar {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.notifier.Cancel(ctx, ids); err != nil {
		return fmt.Errorf("cancelling reminders: %w", err)
	}
	return nil
}
