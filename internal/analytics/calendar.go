package analytics

import (
	"strconv"
	"strings"
	"time"

	"mt4-journal/internal/types"
)

// Calendar selects the two displayed months. The data range spans the daily
// stats and is widened by the from/to filter dates. nil when there is no range.
func Calendar(daily []types.DailyStat, from, to *time.Time, selector string, now time.Time) *types.CalendarWindow {
	var lo, hi *types.YearMonth
	widen := func(ym types.YearMonth) {
		if lo == nil || index(ym) < index(*lo) {
			v := ym
			lo = &v
		}
		if hi == nil || index(ym) > index(*hi) {
			v := ym
			hi = &v
		}
	}
	for _, d := range daily {
		if day, err := time.Parse(time.DateOnly, d.Date); err == nil {
			widen(monthOf(day))
		}
	}
	if from != nil {
		if lo == nil || index(monthOf(*from)) < index(*lo) {
			v := monthOf(*from)
			lo = &v
		}
	}
	if to != nil {
		if hi == nil || index(monthOf(*to)) > index(*hi) {
			v := monthOf(*to)
			hi = &v
		}
	}
	if lo == nil {
		return nil
	}
	if hi == nil {
		hi = lo
	}

	start, end := *lo, *hi
	first, ok := ParseYearMonth(selector)
	if !ok || index(first) < index(start) || index(first) > index(end) {
		today := observerToday(now)
		first = fromIndex(index(monthOf(today)) - 1)
		if index(first) < index(start) {
			first = start
		}
		if index(first) > index(end) {
			first = end
		}
	}
	second := fromIndex(index(first) + 1)

	w := &types.CalendarWindow{
		RangeStart: start,
		RangeEnd:   end,
		Months: [2]types.CalendarMonth{
			{YearMonth: first, Weeks: CalendarWeeks(first.Year, time.Month(first.Month))},
			{YearMonth: second, Weeks: CalendarWeeks(second.Year, time.Month(second.Month))},
		},
	}
	if index(first) > index(start) {
		prev := fromIndex(index(first) - 1)
		w.Prev = &prev
	}
	if index(second) <= index(end) {
		next := second
		w.Next = &next
	}
	return w
}

// ParseYearMonth reads "YYYY-MM".
func ParseYearMonth(s string) (types.YearMonth, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return types.YearMonth{}, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil || y <= 0 {
		return types.YearMonth{}, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return types.YearMonth{}, false
	}
	return types.YearMonth{Year: y, Month: m}, true
}

// CalendarWeeks lays a month out in Sunday-first weeks; 0 pads the first and last week.
func CalendarWeeks(year int, month time.Month) [][7]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	var weeks [][7]int
	var week [7]int
	col := int(first.Weekday())
	for d := 1; d <= days; d++ {
		week[col] = d
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

func monthOf(t time.Time) types.YearMonth {
	return types.YearMonth{Year: t.Year(), Month: int(t.Month())}
}

func index(ym types.YearMonth) int {
	return ym.Year*12 + ym.Month - 1
}

func fromIndex(i int) types.YearMonth {
	return types.YearMonth{Year: i / 12, Month: i%12 + 1}
}
