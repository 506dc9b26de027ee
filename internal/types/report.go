package types

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

type EquityPoint struct {
	Index      int   `json:"index"`
	Cumulative int64 `json:"cumulative"`
}

// DailyStat aggregates trades closed on one observer-zone calendar day.
type DailyStat struct {
	Date        string  `json:"date"`
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	Profit      int64   `json:"profit"`
	Commission  int64   `json:"commission"`
	Swap        int64   `json:"swap"`
	WinningPips float64 `json:"winning_pips"`
	LosingPips  float64 `json:"losing_pips"`
}

type MonthlyStat struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Label       string  `json:"label"`
	Profit      int64   `json:"profit"`
	Commission  int64   `json:"commission"`
	Swap        int64   `json:"swap"`
	Balance     int64   `json:"balance"`
	WinningPips float64 `json:"winning_pips"`
	LosingPips  float64 `json:"losing_pips"`
	NetPips     float64 `json:"net_pips"`
}

type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// CalendarMonth is a Sunday-first grid; zero marks a padding cell.
type CalendarMonth struct {
	YearMonth
	Weeks [][7]int `json:"weeks"`
}

type CalendarWindow struct {
	RangeStart YearMonth        `json:"range_start"`
	RangeEnd   YearMonth        `json:"range_end"`
	Months     [2]CalendarMonth `json:"months"`
	Prev       *YearMonth       `json:"prev,omitempty"`
	Next       *YearMonth       `json:"next,omitempty"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type WinRate struct {
	Key     string  `json:"key"`
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

type HourWinRate struct {
	Hour    int     `json:"hour"`
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// Ratio is a float that survives JSON encoding when it is +Inf.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 1) {
		return []byte(`"Infinity"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == `"Infinity"` {
		*r = Ratio(math.Inf(1))
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

type Summary struct {
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	AvgWinningPips  float64 `json:"avg_winning_pips"`
	AvgLosingPips   float64 `json:"avg_losing_pips"`
	RiskRewardRatio Ratio   `json:"risk_reward_ratio"`
}

// Report is the full analytics view model for one filtered trade set.
type Report struct {
	Equity           []EquityPoint   `json:"equity"`
	Daily            []DailyStat     `json:"daily"`
	Calendar         *CalendarWindow `json:"calendar,omitempty"`
	Monthly          []MonthlyStat   `json:"monthly"`
	TypeDistribution []TypeCount     `json:"type_distribution"`
	WeekdayWinRates  []WinRate       `json:"weekday_win_rates"`
	HourWinRates     []HourWinRate   `json:"hour_win_rates"`
	ItemWinRates     []WinRate       `json:"item_win_rates"`
	Summary          Summary         `json:"summary"`
}

// ReportOptions carries the request context the analytics need beyond the trades.
type ReportOptions struct {
	// From and To are the open-time filter bounds; they widen the calendar range.
	From *time.Time
	To   *time.Time
	// CalendarMonth selects the first displayed month as "YYYY-MM".
	CalendarMonth string
	// Now anchors the default calendar window; zero means time.Now().
	Now time.Time
}
