// Package dates provides the month and year key helpers shared by the
// cache, sync, and API layers.
//
// The habit tracker keys months as "YYYY-MM" (zero padded); daily moments
// use the short "YYYY-M" form. The two forms are not interchangeable, so
// each domain has its own key function.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HabitMonthKey returns the padded month key for t, e.g. "2025-03".
func HabitMonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// MomentsMonthKey returns the short month key for t, e.g. "2025-3".
func MomentsMonthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

// YearKey returns the year key for t, e.g. "2025".
func YearKey(t time.Time) string {
	return strconv.Itoa(t.Year())
}

// TodayKey returns the calendar-date key for t, e.g. "2025-03-07".
func TodayKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseMonthKey parses either month key form into year and month.
func ParseMonthKey(key string) (year, month int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("dates: bad month key %q", key)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("dates: bad month key %q", key)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("dates: bad month key %q", key)
	}
	return year, month, nil
}

// DaysInMonth returns the number of days in the given month, leap aware.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysInMonthKey is DaysInMonth for a parsed month key. Returns an error
// for malformed keys.
func DaysInMonthKey(key string) (int, error) {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return 0, err
	}
	return DaysInMonth(year, month), nil
}

// RecentMonths returns the first-of-month instants for the most recent n
// calendar months, newest first, starting with the month containing now.
func RecentMonths(now time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC))
	}
	return out
}

// SameCalendarDay reports whether a and b fall on the same calendar date.
func SameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
