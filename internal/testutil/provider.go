package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salat-go/internal/salat"
)

// StubProvider is a salat.PrayerTimeProvider returning generated months.
type StubProvider struct {
	mu    sync.Mutex
	Err   error
	Calls int

	// Days overrides the generated month when set.
	Days []salat.PrayerDay

	// Block, when non-nil, is waited on before answering.
	Block chan struct{}

	// HijriMonth, when set, names the Hijri month of each generated day.
	HijriMonth func(date salat.Date) string
}

var _ salat.PrayerTimeProvider = (*StubProvider)(nil)

func (p *StubProvider) FetchMonth(ctx context.Context, req salat.MonthRequest) ([]salat.PrayerDay, error) {
	p.mu.Lock()
	p.Calls++
	err, days, block := p.Err, p.Days, p.Block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if days != nil {
		return append([]salat.PrayerDay(nil), days...), nil
	}
	out := MonthOfDays(req.Year, req.Month)
	if p.HijriMonth != nil {
		for i := range out {
			out[i].HijriMonth = p.HijriMonth(salat.Date{Year: req.Year, Month: req.Month, Day: i + 1})
		}
	}
	return out, nil
}

// SetErr changes the error returned by later calls.
func (p *StubProvider) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Err = err
}

// CallCount returns the number of FetchMonth calls.
func (p *StubProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls
}

// MonthOfDays generates one entry per day with fixed clock times:
// Fajr 05:05, Maghrib 18:00.
func MonthOfDays(year int, month time.Month) []salat.PrayerDay {
	var out []salat.PrayerDay
	for d := 1; d <= salat.DaysIn(year, month); d++ {
		out = append(out, PrayerDayOn(salat.Date{Year: year, Month: month, Day: d}))
	}
	return out
}

// PrayerDayOn returns a provider entry for date with fixed clock times.
func PrayerDayOn(date salat.Date) salat.PrayerDay {
	return salat.PrayerDay{
		Date:          fmt.Sprintf("%02d-%02d-%04d", date.Day, int(date.Month), date.Year),
		GregorianDate: fmt.Sprintf("%02d %s %04d", date.Day, date.Month.String()[:3], date.Year),
		HijriMonth:    "Ramaḍān (رَمَضان)",
		SehriEnd:      "04:55",
		IftarStart:    "18:00",
		Imsak:         "04:55",
		Fajr:          "05:05",
		Sunrise:       "06:20",
		Dhuhr:         "12:10",
		Asr:           "15:30",
		Maghrib:       "18:00",
		Isha:          "19:15",
	}
}
