package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/models"
	"mt4-journal/internal/mt4time"
	"mt4-journal/internal/pips"
	"mt4-journal/internal/types"
)

// Engine computes the report view model from an in-memory trade set.
// It holds no state between calls.
type Engine struct {
	now func() time.Time
}

var _ interfaces.Analyzer = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Compute runs every aggregation over the same filtered trade set.
func (e *Engine) Compute(_ context.Context, trades []models.Trade, opts types.ReportOptions) *types.Report {
	now := opts.Now
	if now.IsZero() {
		now = e.now()
	}

	daily := DailyStats(trades)
	return &types.Report{
		Equity:           Equity(SortChronological(trades)),
		Daily:            daily,
		Calendar:         Calendar(daily, opts.From, opts.To, opts.CalendarMonth, now),
		Monthly:          MonthlyStats(daily),
		TypeDistribution: TypeDistribution(trades),
		WeekdayWinRates:  WeekdayWinRates(trades),
		HourWinRates:     HourWinRates(trades),
		ItemWinRates:     ItemWinRates(trades),
		Summary:          Summarize(trades),
	}
}

// SortChronological returns a copy ordered by close time (falling back to open
// time), then ticket. Trades with neither time sort last.
func SortChronological(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := sortTime(&out[i]), sortTime(&out[j])
		switch {
		case a == nil && b == nil:
			return out[i].Ticket < out[j].Ticket
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].Ticket < out[j].Ticket
	})
	return out
}

func sortTime(t *models.Trade) *time.Time {
	if t.CloseTime != nil {
		return t.CloseTime
	}
	return t.OpenTime
}

// Equity is the cumulative net result per trade, starting at (0, 0).
// trades must already be in chronological order.
func Equity(trades []models.Trade) []types.EquityPoint {
	points := make([]types.EquityPoint, 0, len(trades)+1)
	points = append(points, types.EquityPoint{})
	var cum int64
	for i := range trades {
		cum += trades[i].Net()
		points = append(points, types.EquityPoint{Index: i + 1, Cumulative: cum})
	}
	return points
}

// DailyStats buckets closed trades by observer-zone close date, ascending.
func DailyStats(trades []models.Trade) []types.DailyStat {
	byDay := map[string]*types.DailyStat{}
	for i := range trades {
		t := &trades[i]
		closed := t.CloseTimeObserver()
		if closed == nil {
			continue
		}
		key := closed.Format(time.DateOnly)
		s, ok := byDay[key]
		if !ok {
			s = &types.DailyStat{Date: key}
			byDay[key] = s
		}
		s.Trades++
		if t.IsWin() {
			s.Wins++
		}
		s.Profit += t.Profit
		s.Commission += t.Commission
		s.Swap += t.Swap
		if p, ok := t.Pips(); ok && pips.Usable(p) {
			if p > 0 {
				s.WinningPips += float64(p)
			} else {
				s.LosingPips += float64(-p)
			}
		}
	}

	out := make([]types.DailyStat, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MonthlyStats re-aggregates daily stats by month, ascending.
func MonthlyStats(daily []types.DailyStat) []types.MonthlyStat {
	type key struct{ y, m int }
	byMonth := map[key]*types.MonthlyStat{}
	for _, d := range daily {
		day, err := time.Parse(time.DateOnly, d.Date)
		if err != nil {
			continue
		}
		k := key{day.Year(), int(day.Month())}
		s, ok := byMonth[k]
		if !ok {
			s = &types.MonthlyStat{Year: k.y, Month: k.m}
			byMonth[k] = s
		}
		s.Profit += d.Profit
		s.Commission += d.Commission
		s.Swap += d.Swap
		s.WinningPips += d.WinningPips
		s.LosingPips += d.LosingPips
	}

	out := make([]types.MonthlyStat, 0, len(byMonth))
	for _, s := range byMonth {
		s.Label = time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
		s.Balance = s.Profit + s.Commission + s.Swap
		s.NetPips = round1(s.WinningPips - s.LosingPips)
		s.WinningPips = round1(s.WinningPips)
		s.LosingPips = round1(s.LosingPips)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// TypeDistribution counts trades per non-empty trade type, ordered by type.
func TypeDistribution(trades []models.Trade) []types.TypeCount {
	counts := map[string]int{}
	for i := range trades {
		if trades[i].TradeType == "" {
			continue
		}
		counts[trades[i].TradeType]++
	}
	out := make([]types.TypeCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, types.TypeCount{Type: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

type tally struct {
	total, wins int
}

func (t *tally) add(tr *models.Trade) {
	t.total++
	if tr.IsWin() {
		t.wins++
	}
}

// WeekdayWinRates covers the observer-zone weekdays that saw at least one
// opened trade, Sunday first.
func WeekdayWinRates(trades []models.Trade) []types.WinRate {
	var days [7]tally
	for i := range trades {
		opened := trades[i].OpenTimeObserver()
		if opened == nil {
			continue
		}
		days[opened.Weekday()].add(&trades[i])
	}
	out := []types.WinRate{}
	for wd, s := range days {
		if s.total == 0 {
			continue
		}
		out = append(out, types.WinRate{
			Key:     time.Weekday(wd).String()[:3],
			Total:   s.total,
			Wins:    s.wins,
			WinRate: winRate(s.wins, s.total),
		})
	}
	return out
}

// HourWinRates always has 24 entries, hours without trades at zero.
func HourWinRates(trades []models.Trade) []types.HourWinRate {
	var hours [24]tally
	for i := range trades {
		opened := trades[i].OpenTimeObserver()
		if opened == nil {
			continue
		}
		hours[opened.Hour()].add(&trades[i])
	}
	out := make([]types.HourWinRate, 24)
	for h, s := range hours {
		out[h] = types.HourWinRate{Hour: h, Total: s.total, Wins: s.wins, WinRate: winRate(s.wins, s.total)}
	}
	return out
}

// ItemWinRates groups by instrument, highest win rate first.
func ItemWinRates(trades []models.Trade) []types.WinRate {
	items := map[string]*tally{}
	for i := range trades {
		item := trades[i].Item
		if item == "" {
			continue
		}
		s, ok := items[item]
		if !ok {
			s = &tally{}
			items[item] = s
		}
		s.add(&trades[i])
	}
	out := make([]types.WinRate, 0, len(items))
	for item, s := range items {
		out = append(out, types.WinRate{Key: item, Total: s.total, Wins: s.wins, WinRate: winRate(s.wins, s.total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Summarize computes counts, whole-pip averages and the risk-reward ratio.
func Summarize(trades []models.Trade) types.Summary {
	var (
		s              types.Summary
		winSum, winN   int
		lossSum, lossN int
	)
	s.TotalTrades = len(trades)
	for i := range trades {
		t := &trades[i]
		switch {
		case t.IsWin():
			s.WinningTrades++
			if p, ok := t.Pips(); ok && pips.Usable(p) {
				winSum += p
				winN++
			}
		case t.IsLoss():
			s.LosingTrades++
			if p, ok := t.Pips(); ok && pips.Usable(p) {
				lossSum += abs(p)
				lossN++
			}
		}
	}
	if winN > 0 {
		s.AvgWinningPips = math.Round(float64(winSum) / float64(winN))
	}
	if lossN > 0 {
		s.AvgLosingPips = math.Round(float64(lossSum) / float64(lossN))
	}
	s.RiskRewardRatio = riskReward(s.AvgWinningPips, s.AvgLosingPips)
	return s
}

func riskReward(avgWin, avgLoss float64) types.Ratio {
	switch {
	case avgLoss > 0:
		return types.Ratio(round1(avgWin / avgLoss))
	case avgWin > 0:
		return types.Ratio(math.Inf(1))
	}
	return 0
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(wins) / float64(total) * 100)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func abs(p int) int {
	if p < 0 {
		return -p
	}
	return p
}

// observerToday is the calendar date of now in the observer zone.
func observerToday(now time.Time) time.Time {
	return now.In(mt4time.ObserverZone)
}
