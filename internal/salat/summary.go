package salat

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"time"
)

const (
	weeklyDismissPrefix = "weekly_summary_dismissed_"
	qazaWeeklyPrefix    = "qaza_weekly_"
)

// PrayerMiss counts how often one canonical prayer was missed.
type PrayerMiss struct {
	Prayer Prayer `json:"prayer"`
	Missed int    `json:"missed"`
	Qaza   bool   `json:"qaza"`
}

// WeeklySummary covers the seven days ending yesterday.
type WeeklySummary struct {
	Reference   Date         `json:"reference"`
	Start       Date         `json:"start"`
	End         Date         `json:"end"`
	Total       int          `json:"total"`
	Max         int          `json:"max"`
	Percent     int          `json:"percent"`
	PerfectDays int          `json:"perfect_days"`
	Missed      int          `json:"missed"`
	ByPrayer    []PrayerMiss `json:"by_prayer"`
	Dismissed   bool         `json:"dismissed"`
}

// QazaCompleted returns how many missed prayer kinds are marked made up.
func (w WeeklySummary) QazaCompleted() int {
	n := 0
	for _, m := range w.ByPrayer {
		if m.Qaza {
			n++
		}
	}
	return n
}

// WeeklySummary summarises last week, with today as the reference date for
// banner dismissal and qaza tracking.
func (s *Service) WeeklySummary(ctx context.Context) WeeklySummary {
	today := s.Today()
	end := today.AddDays(-1)
	start := end.AddDays(-6)

	w := summarizeWeek(s.History(ctx, start, end))
	w.Reference = today
	w.Start = start
	w.End = end
	w.Dismissed = s.flag(ctx, weeklyDismissPrefix+today.String())

	qaza := s.qaza(ctx, today)
	for i := range w.ByPrayer {
		w.ByPrayer[i].Qaza = qaza[w.ByPrayer[i].Prayer]
	}
	return w
}

func summarizeWeek(records []DayRecord) WeeklySummary {
	const days = 7
	w := WeeklySummary{Max: days * len(CanonicalPrayers)}
	for _, r := range records {
		w.Total += r.CanonicalCount()
		if r.IsPerfect() {
			w.PerfectDays++
		}
	}
	w.Percent = percent(w.Total, w.Max)
	w.Missed = w.Max - w.Total

	for _, p := range CanonicalPrayers {
		done := 0
		for _, r := range records {
			if r.Get(p) {
				done++
			}
		}
		w.ByPrayer = append(w.ByPrayer, PrayerMiss{Prayer: p, Missed: days - done})
	}
	slices.SortStableFunc(w.ByPrayer, func(a, b PrayerMiss) int {
		return b.Missed - a.Missed
	})
	return w
}

// DismissWeeklySummary hides this week's banner.
func (s *Service) DismissWeeklySummary(ctx context.Context) error {
	return s.kv.Set(ctx, weeklyDismissPrefix+s.Today().String(), "true")
}

// ToggleQaza flips the made-up mark for prayer in this week's summary and
// returns the new value.
func (s *Service) ToggleQaza(ctx context.Context, prayer Prayer) (bool, error) {
	today := s.Today()
	qaza := s.qaza(ctx, today)
	qaza[prayer] = !qaza[prayer]

	data, err := json.Marshal(qaza)
	if err != nil {
		return false, err
	}
	if err := s.kv.Set(ctx, qazaWeeklyPrefix+today.String(), string(data)); err != nil {
		return false, err
	}
	return qaza[prayer], nil
}

func (s *Service) qaza(ctx context.Context, ref Date) map[Prayer]bool {
	out := make(map[Prayer]bool)
	raw, ok, err := s.kv.Get(ctx, qazaWeeklyPrefix+ref.String())
	if err != nil || !ok {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logger.Warn("ignoring unreadable qaza state", "date", ref.String(), "error", err)
		return make(map[Prayer]bool)
	}
	return out
}

func (s *Service) flag(ctx context.Context, key string) bool {
	_, ok, err := s.kv.Get(ctx, key)
	return err == nil && ok
}

// DayCount is one calendar cell.
type DayCount struct {
	Date      Date `json:"date"`
	Completed int  `json:"completed"`
	Perfect   bool `json:"perfect"`
	Taraweeh  bool `json:"taraweeh"`
	Tahajjud  bool `json:"tahajjud"`
}

// MonthHistory returns one cell per day of the month, including days with
// no record.
func (s *Service) MonthHistory(ctx context.Context, year int, month time.Month) []DayCount {
	start := Date{Year: year, Month: month, Day: 1}
	end := Date{Year: year, Month: month, Day: DaysIn(year, month)}

	byDate := make(map[Date]DayRecord)
	for _, r := range s.History(ctx, start, end) {
		byDate[r.Date] = r
	}

	cells := make([]DayCount, 0, end.Day)
	for d := start; !d.After(end); d = d.AddDays(1) {
		r := byDate[d]
		cells = append(cells, DayCount{
			Date:      d,
			Completed: r.CanonicalCount(),
			Perfect:   r.IsPerfect(),
			Taraweeh:  r.Taraweeh,
			Tahajjud:  r.Tahajjud,
		})
	}
	return cells
}

// MonthTotal is one bar of the yearly overview.
type MonthTotal struct {
	Month       time.Month `json:"month"`
	Total       int        `json:"total"`
	Max         int        `json:"max"`
	Percent     int        `json:"percent"`
	PerfectDays int        `json:"perfect_days"`
	ElapsedDays int        `json:"elapsed_days"`
	Future      bool       `json:"future"`
}

// YearlyOverview aggregates a calendar year by month.
type YearlyOverview struct {
	Year        int          `json:"year"`
	Months      []MonthTotal `json:"months"`
	Total       int          `json:"total"`
	Max         int          `json:"max"`
	Percent     int          `json:"percent"`
	PerfectDays int          `json:"perfect_days"`
	Streaks     StreakResult `json:"streaks"`
}

// YearlyOverview builds per-month totals for year. The current month counts
// only elapsed days and later months count nothing.
func (s *Service) YearlyOverview(ctx context.Context, year int) YearlyOverview {
	records := s.History(ctx, Date{Year: year, Month: time.January, Day: 1}, Date{Year: year, Month: time.December, Day: 31})
	ov := BuildYearlyOverview(records, year, s.Today())
	ov.Streaks = s.Streaks(ctx)
	return ov
}

// BuildYearlyOverview aggregates records of year as seen on today.
func BuildYearlyOverview(records []DayRecord, year int, today Date) YearlyOverview {
	ov := YearlyOverview{Year: year}
	for m := time.January; m <= time.December; m++ {
		mt := MonthTotal{Month: m}
		first := Date{Year: year, Month: m, Day: 1}
		switch {
		case first.After(today):
			mt.Future = true
		case year == today.Year && m == today.Month:
			mt.ElapsedDays = today.Day
		default:
			mt.ElapsedDays = DaysIn(year, m)
		}
		for _, r := range records {
			if r.Date.Year != year || r.Date.Month != m {
				continue
			}
			mt.Total += r.CanonicalCount()
			if r.IsPerfect() {
				mt.PerfectDays++
			}
		}
		if !mt.Future {
			mt.Max = mt.ElapsedDays * len(CanonicalPrayers)
			mt.Percent = percent(mt.Total, mt.Max)
		}

		ov.Total += mt.Total
		ov.Max += mt.Max
		ov.PerfectDays += mt.PerfectDays
		ov.Months = append(ov.Months, mt)
	}
	ov.Percent = percent(ov.Total, ov.Max)
	return ov
}

func percent(n, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(limit)))
}
