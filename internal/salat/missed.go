package salat

import "time"

// missedAfterHour is the local hour after which an unchecked prayer counts as missed.
var missedAfterHour = map[Prayer]int{
	Fajr:    7,
	Dhuhr:   14,
	Asr:     17,
	Maghrib: 19,
	Isha:    21,
}

// MissedPrayers returns the canonical prayers whose nudge hour has passed at
// now and that record does not mark complete, in canonical order.
func MissedPrayers(now time.Time, record DayRecord) []Prayer {
	var out []Prayer
	for _, p := range CanonicalPrayers {
		if now.Hour() >= missedAfterHour[p] && !record.Get(p) {
			out = append(out, p)
		}
	}
	return out
}

// UpcomingFasts lists the Mondays and Thursdays among the days days starting
// at today.
func UpcomingFasts(today Date, days int) []Date {
	var out []Date
	for i := 0; i < days; i++ {
		d := today.AddDays(i)
		if wd := d.Weekday(); wd == time.Monday || wd == time.Thursday {
			out = append(out, d)
		}
	}
	return out
}
