package prayertimes

import (
	"fmt"

	"salat-go/internal/salat"
)

// calendarResponse is the AlAdhan response envelope.
type calendarResponse struct {
	Code   int           `json:"code"`
	Status string        `json:"status"`
	Data   []calendarDay `json:"data"`
}

type calendarDay struct {
	Timings struct {
		Fajr    string `json:"Fajr"`
		Sunrise string `json:"Sunrise"`
		Dhuhr   string `json:"Dhuhr"`
		Asr     string `json:"Asr"`
		Maghrib string `json:"Maghrib"`
		Isha    string `json:"Isha"`
		Imsak   string `json:"Imsak"`
	} `json:"timings"`
	Date struct {
		Readable string `json:"readable"`
		Hijri    struct {
			Date  string `json:"date"`
			Day   string `json:"day"`
			Month struct {
				Number int    `json:"number"`
				En     string `json:"en"`
				Ar     string `json:"ar"`
			} `json:"month"`
			Year string `json:"year"`
		} `json:"hijri"`
		Gregorian struct {
			Date string `json:"date"`
		} `json:"gregorian"`
	} `json:"date"`
}

// prayerDay maps one entry. SehriEnd is left for the cache to derive.
func (d calendarDay) prayerDay() salat.PrayerDay {
	t := d.Timings
	h := d.Date.Hijri
	return salat.PrayerDay{
		Date:          d.Date.Gregorian.Date,
		HijriDate:     h.Date,
		HijriDay:      h.Day,
		HijriMonth:    fmt.Sprintf("%s (%s)", h.Month.En, h.Month.Ar),
		HijriYear:     h.Year,
		GregorianDate: d.Date.Readable,
		IftarStart:    salat.CleanTime(t.Maghrib),
		Imsak:         salat.CleanTime(t.Imsak),
		Fajr:          salat.CleanTime(t.Fajr),
		Sunrise:       salat.CleanTime(t.Sunrise),
		Dhuhr:         salat.CleanTime(t.Dhuhr),
		Asr:           salat.CleanTime(t.Asr),
		Maghrib:       salat.CleanTime(t.Maghrib),
		Isha:          salat.CleanTime(t.Isha),
	}
}
