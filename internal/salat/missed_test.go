package salat_test

import (
	"testing"
	"time"

	"salat-go/internal/salat"
)

func TestMissedPrayers(t *testing.T) {
	date := salat.MustParseDate("2026-02-24")
	at := func(hour int) time.Time { return time.Date(2026, 2, 24, hour, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		now    time.Time
		record salat.DayRecord
		want   []salat.Prayer
	}{
		{"early morning", at(6), salat.NewDayRecord(date), nil},
		{"after fajr window", at(7), salat.NewDayRecord(date), []salat.Prayer{salat.Fajr}},
		{"fajr done", at(8), day("2026-02-24", salat.Fajr), nil},
		{"evening", at(20), day("2026-02-24", salat.Dhuhr), []salat.Prayer{salat.Fajr, salat.Asr, salat.Maghrib}},
		{"night all done", at(23), perfect(date), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := salat.MissedPrayers(tt.now, tt.record)
			if len(got) != len(tt.want) {
				t.Fatalf("MissedPrayers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("MissedPrayers()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUpcomingFasts(t *testing.T) {
	// 2026-02-24 is a Tuesday.
	got := salat.UpcomingFasts(salat.MustParseDate("2026-02-24"), 7)
	want := []salat.Date{salat.MustParseDate("2026-02-26"), salat.MustParseDate("2026-03-02")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("UpcomingFasts() = %v, want %v", got, want)
	}
}
