package analytics

import (
	"testing"
	"time"

	"mt4-journal/internal/types"
)

func days(dates ...string) []types.DailyStat {
	out := make([]types.DailyStat, 0, len(dates))
	for _, d := range dates {
		out = append(out, types.DailyStat{Date: d})
	}
	return out
}

func ym(y, m int) types.YearMonth {
	return types.YearMonth{Year: y, Month: m}
}

func TestCalendarDefaultsToPreviousMonth(t *testing.T) {
	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	w := Calendar(days("2024-05-02", "2024-07-01"), nil, nil, "", now)
	if w == nil {
		t.Fatal("Expected a window")
	}
	if w.Months[0].YearMonth != ym(2024, 6) || w.Months[1].YearMonth != ym(2024, 7) {
		t.Errorf("Expected June and July, got %v and %v", w.Months[0].YearMonth, w.Months[1].YearMonth)
	}
	if w.Prev == nil || *w.Prev != ym(2024, 5) {
		t.Errorf("Expected prev May, got %v", w.Prev)
	}
	if w.Next == nil || *w.Next != ym(2024, 7) {
		t.Errorf("Expected next July, got %v", w.Next)
	}
}

func TestCalendarClampsDefaultIntoRange(t *testing.T) {
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	w := Calendar(days("2024-05-02", "2024-07-01"), nil, nil, "", future)
	if w.Months[0].YearMonth != ym(2024, 7) || w.Months[1].YearMonth != ym(2024, 8) {
		t.Errorf("Expected July and August, got %v and %v", w.Months[0].YearMonth, w.Months[1].YearMonth)
	}
	if w.Next != nil {
		t.Errorf("Expected no next month past the range, got %v", w.Next)
	}

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	w = Calendar(days("2024-05-02", "2024-07-01"), nil, nil, "", past)
	if w.Months[0].YearMonth != ym(2024, 5) || w.Prev != nil {
		t.Errorf("Expected May without prev, got %v prev=%v", w.Months[0].YearMonth, w.Prev)
	}
}

func TestCalendarSelector(t *testing.T) {
	now := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	data := days("2024-01-15", "2024-07-01")

	w := Calendar(data, nil, nil, "2024-03", now)
	if w.Months[0].YearMonth != ym(2024, 3) || w.Months[1].YearMonth != ym(2024, 4) {
		t.Errorf("Expected March and April, got %v and %v", w.Months[0].YearMonth, w.Months[1].YearMonth)
	}

	for _, bad := range []string{"2023-12", "2024-13", "2024", "abc-01", "2024-08"} {
		w = Calendar(data, nil, nil, bad, now)
		if w.Months[0].YearMonth != ym(2024, 6) {
			t.Errorf("selector %q: expected the default June, got %v", bad, w.Months[0].YearMonth)
		}
	}
}

func TestCalendarRangeWidenedByFilter(t *testing.T) {
	now := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	w := Calendar(days("2024-06-10"), &from, &to, "", now)
	if w.RangeStart != ym(2024, 3) || w.RangeEnd != ym(2024, 9) {
		t.Errorf("Expected range 2024-03..2024-09, got %v..%v", w.RangeStart, w.RangeEnd)
	}

	w = Calendar(nil, &from, nil, "", now)
	if w == nil || w.RangeStart != ym(2024, 3) || w.RangeEnd != ym(2024, 3) {
		t.Errorf("Expected a single-month range from the from date, got %+v", w)
	}
}

func TestCalendarWithoutData(t *testing.T) {
	to := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	if w := Calendar(nil, nil, &to, "", time.Now()); w != nil {
		t.Errorf("Expected no window without a range start, got %+v", w)
	}
	if w := Calendar(nil, nil, nil, "", time.Now()); w != nil {
		t.Errorf("Expected no window, got %+v", w)
	}
}

func TestCalendarYearBoundary(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	w := Calendar(days("2024-11-03", "2025-01-02"), nil, nil, "", now)
	if w.Months[0].YearMonth != ym(2024, 12) || w.Months[1].YearMonth != ym(2025, 1) {
		t.Errorf("Expected December and January, got %v and %v", w.Months[0].YearMonth, w.Months[1].YearMonth)
	}
}

func TestCalendarWeeks(t *testing.T) {
	// June 2024 starts on a Saturday.
	weeks := CalendarWeeks(2024, time.June)
	if len(weeks) != 6 {
		t.Fatalf("Expected 6 weeks, got %d", len(weeks))
	}
	if weeks[0] != [7]int{0, 0, 0, 0, 0, 0, 1} {
		t.Errorf("Unexpected first week: %v", weeks[0])
	}
	if weeks[5] != [7]int{30, 0, 0, 0, 0, 0, 0} {
		t.Errorf("Unexpected last week: %v", weeks[5])
	}

	// February 2026 starts on a Sunday and fills exactly four weeks.
	weeks = CalendarWeeks(2026, time.February)
	if len(weeks) != 4 || weeks[0][0] != 1 || weeks[3][6] != 28 {
		t.Errorf("Unexpected February 2026 grid: %v", weeks)
	}
}

func TestParseYearMonth(t *testing.T) {
	if got, ok := ParseYearMonth("2024-03"); !ok || got != ym(2024, 3) {
		t.Errorf("Expected 2024-03, got %v %v", got, ok)
	}
	if got, ok := ParseYearMonth("2024-3"); !ok || got.String() != "2024-03" {
		t.Errorf("Expected 2024-03, got %v %v", got, ok)
	}
	for _, bad := range []string{"", "2024", "2024-00", "0-05", "2024-05-01"} {
		if _, ok := ParseYearMonth(bad); ok {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}
