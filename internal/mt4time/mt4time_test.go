package mt4time

import (
	"testing"
	"time"
)

func broker(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestToObserverSummerAndWinter(t *testing.T) {
	got := ToObserver(broker(2024, time.June, 15, 10, 0))
	want := time.Date(2024, time.June, 15, 16, 0, 0, 0, ObserverZone)
	if !got.Equal(want) || got.Hour() != 16 {
		t.Errorf("Expected %v, got %v", want, got)
	}

	got = ToObserver(broker(2024, time.December, 15, 10, 0))
	want = time.Date(2024, time.December, 15, 17, 0, 0, 0, ObserverZone)
	if !got.Equal(want) || got.Hour() != 17 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDSTBoundaryMarch(t *testing.T) {
	if d := NthSunday(2024, time.March, 2); d.Day() != 10 {
		t.Fatalf("Expected second Sunday of March 2024 to be the 10th, got %d", d.Day())
	}

	before := ToObserver(broker(2024, time.March, 10, 1, 59))
	if before.Day() != 10 || before.Hour() != 8 || before.Minute() != 59 {
		t.Errorf("Expected 2024-03-10 08:59 (+7h), got %v", before)
	}
	at := ToObserver(broker(2024, time.March, 10, 2, 0))
	if at.Day() != 10 || at.Hour() != 8 || at.Minute() != 0 {
		t.Errorf("Expected 2024-03-10 08:00 (+6h), got %v", at)
	}
}

func TestDSTBoundaryNovember(t *testing.T) {
	if d := NthSunday(2024, time.November, 1); d.Day() != 3 {
		t.Fatalf("Expected first Sunday of November 2024 to be the 3rd, got %d", d.Day())
	}
	if !IsDST(broker(2024, time.November, 3, 1, 59)) {
		t.Error("Expected 01:59 on the first Sunday of November to be summer time")
	}
	if IsDST(broker(2024, time.November, 3, 2, 0)) {
		t.Error("Expected 02:00 on the first Sunday of November to be winter time")
	}
}

func TestNthSundayWhenFirstDayIsSunday(t *testing.T) {
	// 2026-03-01 is a Sunday.
	if d := NthSunday(2026, time.March, 1); d.Day() != 1 {
		t.Errorf("Expected 1, got %d", d.Day())
	}
	if d := NthSunday(2026, time.March, 2); d.Day() != 8 {
		t.Errorf("Expected 8, got %d", d.Day())
	}
}

func TestToObserverCrossesMidnight(t *testing.T) {
	got := ToObserver(broker(2024, time.January, 31, 20, 30))
	if got.Month() != time.February || got.Day() != 1 || got.Hour() != 3 {
		t.Errorf("Expected 2024-02-01 03:30, got %v", got)
	}
}

func TestToObserverPtrNil(t *testing.T) {
	if ToObserverPtr(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestParse(t *testing.T) {
	cases := map[string]time.Time{
		"2024.06.15 10:00":     broker(2024, time.June, 15, 10, 0),
		"2024.06.15 10:00:30":  time.Date(2024, time.June, 15, 10, 0, 30, 0, time.UTC),
		" 2024-06-15   10:00 ": broker(2024, time.June, 15, 10, 0),
		"2024 June 15, 10:00":  broker(2024, time.June, 15, 10, 0),
		"2024-06-15":           broker(2024, time.June, 15, 0, 0),
		"2024/06/15 10:00":     broker(2024, time.June, 15, 10, 0),
		"2024-06-15T10:00:00Z": broker(2024, time.June, 15, 10, 0),
	}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok {
			t.Errorf("Parse(%q) failed", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "   ", "not a date", "2024.13.45"} {
		if _, ok := Parse(bad); ok {
			t.Errorf("Expected Parse(%q) to fail", bad)
		}
		if ParsePtr(bad) != nil {
			t.Errorf("Expected ParsePtr(%q) to be nil", bad)
		}
	}
}
