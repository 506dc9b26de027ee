package mt4time

import (
	"strings"
	"time"
)

// ObserverZone is the fixed UTC+9 zone every calendar, weekday and hour bucket is computed in.
var ObserverZone = time.FixedZone("JST", 9*60*60)

const (
	summerOffset = 6 * time.Hour
	winterOffset = 7 * time.Hour
)

// ToObserver converts a broker-server wall-clock timestamp to observer time.
// The broker clock follows the North-American daylight-saving calendar, so the
// offset is +6h inside that window and +7h outside it.
func ToObserver(t time.Time) time.Time {
	wall := naive(t)
	offset := winterOffset
	if IsDST(wall) {
		offset = summerOffset
	}
	w := wall.Add(offset)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), ObserverZone)
}

// ToObserverPtr is ToObserver for nullable timestamps.
func ToObserverPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	o := ToObserver(*t)
	return &o
}

// IsDST reports whether the broker wall clock t falls between the second Sunday of
// March 02:00 and the first Sunday of November 02:00 of its own year.
func IsDST(t time.Time) bool {
	wall := naive(t)
	year := wall.Year()
	start := NthSunday(year, time.March, 2).Add(2 * time.Hour)
	end := NthSunday(year, time.November, 1).Add(2 * time.Hour)

	if end.Before(start) {
		return !wall.Before(start) || wall.Before(end)
	}
	return !wall.Before(start) && wall.Before(end)
}

// NthSunday returns midnight (UTC-labelled wall clock) of the n-th Sunday of the month.
func NthSunday(year int, month time.Month, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	delta := (7 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, delta+(n-1)*7)
}

// naive drops the location and keeps the wall clock.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

var layouts = []string{
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006 January 2, 15:04:05",
	"2006 January 2, 15:04",
	"2006 Jan 2, 15:04",
	"January 2, 2006 15:04",
	"January 2, 2006",
	time.RFC3339,
}

// Parse leniently reads a broker or user supplied timestamp. The result keeps the
// wall clock of the input labelled as UTC; ok is false when no layout matches.
func Parse(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t), true
		}
	}
	return time.Time{}, false
}

// ParsePtr returns nil instead of a zero time when s cannot be parsed.
func ParsePtr(s string) *time.Time {
	t, ok := Parse(s)
	if !ok {
		return nil
	}
	return &t
}
