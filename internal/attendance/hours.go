package attendance

import (
	"errors"
	"math"
	"strings"
	"time"
)

var errCheckOutBeforeCheckIn = errors.New("check_out must be after check_in")

// deriveHours computes worked and overtime hours. Overtime is only counted
// when both timestamps exist; fallbackWorked is used when they don't.
func deriveHours(checkIn, checkOut *time.Time, standardHours, fallbackWorked float64) (worked, overtime float64, err error) {
	if checkIn == nil || checkOut == nil {
		if fallbackWorked < 0 {
			fallbackWorked = 0
		}
		return round2(fallbackWorked), 0, nil
	}
	if !checkOut.After(*checkIn) {
		return 0, 0, errCheckOutBeforeCheckIn
	}
	worked = round2(checkOut.Sub(*checkIn).Hours())
	if standardHours > 0 && worked > standardHours {
		overtime = round2(worked - standardHours)
	}
	return worked, overtime, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

var stampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"}

// parseClock reads a time-of-day or a full timestamp for the given day.
// Empty input yields nil.
func parseClock(v string, day time.Time, loc *time.Location) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, l := range stampLayouts {
		if t, err := time.ParseInLocation(l, v, loc); err == nil {
			u := t.UTC()
			return &u, nil
		}
	}
	for _, l := range clockLayouts {
		if t, err := time.ParseInLocation(l, strings.ToUpper(v), loc); err == nil {
			full := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc).UTC()
			return &full, nil
		}
	}
	return nil, errors.New("invalid time " + `"` + v + `"`)
}

// normalizeDateString maps "today", year-first slash dates and the
// spreadsheet m/d/yy display form onto YYYY-MM-DD.
func normalizeDateString(v string, now time.Time) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "today" {
		return now.Format(DateLayout)
	}
	for _, l := range []string{"2006/1/2", "1/2/06", "1/2/2006"} {
		if t, err := time.Parse(l, v); err == nil {
			return t.Format(DateLayout)
		}
	}
	return v
}

func parseDate(v string, now time.Time, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, normalizeDateString(v, now), loc)
}
