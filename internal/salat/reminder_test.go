package salat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"salat-go/internal/salat"
	"salat-go/internal/testutil"
)

// calendarFrom returns n provider days starting at start.
func calendarFrom(start string, n int) []salat.PrayerDay {
	d := salat.MustParseDate(start)
	out := make([]salat.PrayerDay, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, testutil.PrayerDayOn(d.AddDays(i)))
	}
	return out
}

func newTestScheduler(n salat.Notifier) *salat.ReminderScheduler {
	return salat.NewReminderScheduler(n, testutil.FixedClock(), salat.NewNopLogger(), salat.ReminderOptions{Location: time.UTC})
}

func reminderIDs(rs []salat.Reminder) []int {
	ids := make([]int, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReminderScheduler_Plan(t *testing.T) {
	notifier := testutil.NewRecordingNotifier()
	s := newTestScheduler(notifier)

	// The clock reads 2026-02-24 10:30, so that day's sehri reminder is past.
	plan := s.Plan(calendarFrom("2026-02-24", 2))

	want := []salat.Reminder{
		{ID: 2000, FiresAt: time.Date(2026, 2, 24, 18, 0, 0, 0, time.UTC), Channel: salat.ChannelIftar},
		{ID: 1001, FiresAt: time.Date(2026, 2, 25, 4, 40, 0, 0, time.UTC), Channel: salat.ChannelSehri},
		{ID: 2001, FiresAt: time.Date(2026, 2, 25, 18, 0, 0, 0, time.UTC), Channel: salat.ChannelIftar},
	}
	if len(plan) != len(want) {
		t.Fatalf("Plan() = %+v, want %d reminders", plan, len(want))
	}
	for i, w := range want {
		got := plan[i]
		if got.ID != w.ID || !got.FiresAt.Equal(w.FiresAt) || got.Channel != w.Channel {
			t.Errorf("Plan()[%d] = {%d %v %s}, want {%d %v %s}", i, got.ID, got.FiresAt, got.Channel, w.ID, w.FiresAt, w.Channel)
		}
	}
	if !strings.Contains(plan[1].Body, "04:55") {
		t.Errorf("sehri body %q does not name the sehri end", plan[1].Body)
	}
	if !strings.Contains(plan[0].Body, "18:00") {
		t.Errorf("iftar body %q does not name the iftar time", plan[0].Body)
	}
}

func TestReminderScheduler_PlanKeepsEarliestWithinLimit(t *testing.T) {
	notifier := testutil.NewRecordingNotifier()
	notifier.Limit = 5
	s := newTestScheduler(notifier)

	got := reminderIDs(s.Plan(calendarFrom("2026-02-24", 10)))
	want := []int{2000, 1001, 2001, 1002, 2002}
	if !equalInts(got, want) {
		t.Errorf("Plan() ids = %v, want %v", got, want)
	}
}

func TestReminderScheduler_PlanSkipsMalformedTimes(t *testing.T) {
	days := calendarFrom("2026-02-25", 1)
	days[0].SehriEnd = "--:--"
	s := newTestScheduler(testutil.NewRecordingNotifier())

	got := reminderIDs(s.Plan(days))
	if !equalInts(got, []int{2000}) {
		t.Errorf("Plan() ids = %v, want only the iftar reminder", got)
	}
}

func TestReminderScheduler_ScheduleAll(t *testing.T) {
	ctx := context.Background()
	notifier := testutil.NewRecordingNotifier()
	s := newTestScheduler(notifier)

	n, err := s.ScheduleAll(ctx, calendarFrom("2026-02-24", 40), true)
	if err != nil {
		t.Fatalf("ScheduleAll() error = %v", err)
	}
	if n != 79 {
		t.Errorf("ScheduleAll() = %d, want 79", n)
	}
	if len(notifier.Batches) != 2 || len(notifier.Batches[0]) != 60 || len(notifier.Batches[1]) != 19 {
		t.Errorf("batch sizes = %d batches, want 60 + 19", len(notifier.Batches))
	}
}

func TestReminderScheduler_Idempotent(t *testing.T) {
	ctx := context.Background()
	notifier := testutil.NewRecordingNotifier()
	s := newTestScheduler(notifier)
	days := calendarFrom("2026-02-24", 5)

	if _, err := s.ScheduleAll(ctx, days, true); err != nil {
		t.Fatal(err)
	}
	first := reminderIDs(notifier.PendingReminders())

	if _, err := s.ScheduleAll(ctx, days, true); err != nil {
		t.Fatal(err)
	}
	second := reminderIDs(notifier.PendingReminders())

	if !equalInts(first, second) {
		t.Errorf("pending after rerun = %v, want %v", second, first)
	}
	if len(notifier.Cancels) != 1 || !equalInts(notifier.Cancels[0], first) {
		t.Errorf("Cancels = %v, want the first run's ids", notifier.Cancels)
	}
}

func TestReminderScheduler_LeavesOtherChannels(t *testing.T) {
	ctx := context.Background()
	notifier := testutil.NewRecordingNotifier()
	nudge := salat.Reminder{ID: 5, Title: "Asr", FiresAt: time.Date(2026, 2, 24, 17, 0, 0, 0, time.UTC), Channel: salat.ChannelPrayer}
	if err := notifier.ScheduleBatch(ctx, []salat.Reminder{nudge}); err != nil {
		t.Fatal(err)
	}
	s := newTestScheduler(notifier)

	if _, err := s.ScheduleAll(ctx, calendarFrom("2026-02-25", 1), true); err != nil {
		t.Fatal(err)
	}
	if err := s.CancelAll(ctx); err != nil {
		t.Fatal(err)
	}
	got := notifier.PendingReminders()
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("pending = %+v, want only the prayer nudge", got)
	}
}

func TestReminderScheduler_NoOps(t *testing.T) {
	ctx := context.Background()
	days := calendarFrom("2026-02-25", 3)

	tests := []struct {
		name    string
		granted bool
		enabled bool
		days    []salat.PrayerDay
	}{
		{name: "permission denied", granted: false, enabled: true, days: days},
		{name: "disabled", granted: true, enabled: false, days: days},
		{name: "empty calendar", granted: true, enabled: true, days: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := testutil.NewRecordingNotifier()
			notifier.Granted = tt.granted
			s := newTestScheduler(notifier)

			n, err := s.ScheduleAll(ctx, tt.days, tt.enabled)
			if err != nil || n != 0 {
				t.Errorf("ScheduleAll() = %d, %v, want 0, nil", n, err)
			}
			if len(notifier.Batches) != 0 {
				t.Errorf("scheduled %d batches", len(notifier.Batches))
			}
		})
	}
}
