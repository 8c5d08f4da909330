package timecalc

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the day-granularity format used for work log dates.
const DateLayout = "2006-01-02"

// Today returns the calendar date of t as YYYY-MM-DD.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// DayLabel formats a YYYY-MM-DD date as "dd/MM" for chart axes.
// Unparseable input is returned unchanged.
func DayLabel(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01")
}

// FormatHours formats an hour total like "12.0 h".
func FormatHours(hours int) string {
	return fmt.Sprintf("%.1f h", float64(hours))
}

// RoundHours converts a duration into whole hours, rounding to the nearest
// hour. The result is never below 1.
func RoundHours(d time.Duration) int {
	h := int(math.Round(d.Hours()))
	if h < 1 {
		return 1
	}
	return h
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = StartOfDay(monday)
	return monday, EndOfDay(monday.AddDate(0, 0, 6))
}

// WeekDates is WeekRange expressed as inclusive YYYY-MM-DD bounds.
func WeekDates(t time.Time) (string, string) {
	from, to := WeekRange(t)
	return from.Format(DateLayout), to.Format(DateLayout)
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
