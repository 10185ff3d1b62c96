package salat_test

import (
	"testing"

	"salat-go/internal/salat"
)

func perfectOn(dates ...string) []salat.DayRecord {
	var out []salat.DayRecord
	for _, d := range dates {
		out = append(out, perfect(salat.MustParseDate(d)))
	}
	return out
}

func perfect(date salat.Date) salat.DayRecord {
	return salat.DayRecord{Date: date, Fajr: true, Dhuhr: true, Asr: true, Maghrib: true, Isha: true}
}

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name    string
		records []salat.DayRecord
		today   string
		want    salat.StreakResult
	}{
		{
			name:  "empty history",
			today: "2026-02-24",
			want:  salat.StreakResult{},
		},
		{
			name:    "run broken before today",
			records: perfectOn("2026-02-20", "2026-02-21", "2026-02-22"),
			today:   "2026-02-24",
			want:    salat.StreakResult{Current: 0, Longest: 3},
		},
		{
			name:    "run ending today",
			records: perfectOn("2026-02-20", "2026-02-21", "2026-02-22", "2026-02-23"),
			today:   "2026-02-23",
			want:    salat.StreakResult{Current: 4, Longest: 4},
		},
		{
			name: "unfinished today breaks current",
			records: append(perfectOn("2026-02-20", "2026-02-21"),
				salat.DayRecord{Date: salat.MustParseDate("2026-02-22"), Fajr: true, Dhuhr: true}),
			today: "2026-02-22",
			want:  salat.StreakResult{Current: 0, Longest: 2},
		},
		{
			name:    "longest earlier than current",
			records: perfectOn("2026-02-01", "2026-02-02", "2026-02-03", "2026-02-05", "2026-02-06"),
			today:   "2026-02-06",
			want:    salat.StreakResult{Current: 2, Longest: 3},
		},
		{
			name: "night prayers do not count",
			records: []salat.DayRecord{
				{Date: salat.MustParseDate("2026-02-23"), Fajr: true, Dhuhr: true, Asr: true, Maghrib: true, Taraweeh: true, Tahajjud: true},
			},
			today: "2026-02-23",
			want:  salat.StreakResult{},
		},
		{
			name:    "across month and year boundary",
			records: perfectOn("2025-12-30", "2025-12-31", "2026-01-01"),
			today:   "2026-01-01",
			want:    salat.StreakResult{Current: 3, Longest: 3},
		},
		{
			name:    "across leap day",
			records: perfectOn("2028-02-28", "2028-02-29", "2028-03-01"),
			today:   "2028-03-01",
			want:    salat.StreakResult{Current: 3, Longest: 3},
		},
		{
			name:    "unsorted input",
			records: perfectOn("2026-02-23", "2026-02-21", "2026-02-22"),
			today:   "2026-02-23",
			want:    salat.StreakResult{Current: 3, Longest: 3},
		},
		{
			name:    "future records ignored",
			records: perfectOn("2026-02-23", "2026-02-25"),
			today:   "2026-02-23",
			want:    salat.StreakResult{Current: 1, Longest: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := salat.ComputeStreaks(tt.records, salat.MustParseDate(tt.today))
			if got != tt.want {
				t.Errorf("ComputeStreaks() = %+v, want %+v", got, tt.want)
			}
			if got.Longest < got.Current {
				t.Errorf("Longest %d < Current %d", got.Longest, got.Current)
			}
		})
	}
}
