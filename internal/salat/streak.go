package salat

// StreakResult holds the streak statistics derived from a history.
type StreakResult struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ComputeStreaks walks every calendar date from the first perfect day to
// today inclusive. The running count resets on any non-perfect date, so an
// unfinished today yields Current == 0.
//
// records need not be sorted. Dates after today are ignored.
func ComputeStreaks(records []DayRecord, today Date) StreakResult {
	perfect := make(map[Date]bool)
	var start Date
	for _, r := range records {
		if !r.IsPerfect() || r.Date.After(today) {
			continue
		}
		perfect[r.Date] = true
		if start.IsZero() || r.Date.Before(start) {
			start = r.Date
		}
	}
	if len(perfect) == 0 {
		return StreakResult{}
	}

	var res StreakResult
	run := 0
	for d := start; !d.After(today); d = d.AddDays(1) {
		if perfect[d] {
			run++
			if run > res.Longest {
				res.Longest = run
			}
		} else {
			run = 0
		}
	}
	res.Current = run
	return res
}
