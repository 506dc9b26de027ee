// Package export renders daily and monthly statistics as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"mt4-journal/internal/types"
)

const ContentType = "text/csv; charset=utf-8"

var (
	dailyHeaders   = []string{"date", "trades", "wins", "profit", "commission", "swap", "winning_pips", "losing_pips"}
	monthlyHeaders = []string{"month", "profit", "commission", "swap", "balance", "winning_pips", "losing_pips", "net_pips"}
)

// WriteDaily writes one row per day followed by a TOTAL row.
func WriteDaily(w io.Writer, days []types.DailyStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dailyHeaders); err != nil {
		return err
	}
	var total types.DailyStat
	for _, d := range days {
		if err := cw.Write(dailyRecord(d.Date, d)); err != nil {
			return err
		}
		total.Trades += d.Trades
		total.Wins += d.Wins
		total.Profit += d.Profit
		total.Commission += d.Commission
		total.Swap += d.Swap
		total.WinningPips += d.WinningPips
		total.LosingPips += d.LosingPips
	}
	if err := cw.Write(dailyRecord("TOTAL", total)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthly writes one row per month followed by a TOTAL row. The TOTAL
// balance is the closing balance of the last month.
func WriteMonthly(w io.Writer, months []types.MonthlyStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(monthlyHeaders); err != nil {
		return err
	}
	var total types.MonthlyStat
	for _, m := range months {
		if err := cw.Write(monthlyRecord(m.Label, m)); err != nil {
			return err
		}
		total.Profit += m.Profit
		total.Commission += m.Commission
		total.Swap += m.Swap
		total.Balance = m.Balance
		total.WinningPips += m.WinningPips
		total.LosingPips += m.LosingPips
		total.NetPips += m.NetPips
	}
	if err := cw.Write(monthlyRecord("TOTAL", total)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func dailyRecord(label string, d types.DailyStat) []string {
	return []string{
		label,
		strconv.Itoa(d.Trades),
		strconv.Itoa(d.Wins),
		strconv.FormatInt(d.Profit, 10),
		strconv.FormatInt(d.Commission, 10),
		strconv.FormatInt(d.Swap, 10),
		pipsField(d.WinningPips),
		pipsField(d.LosingPips),
	}
}

func monthlyRecord(label string, m types.MonthlyStat) []string {
	return []string{
		label,
		strconv.FormatInt(m.Profit, 10),
		strconv.FormatInt(m.Commission, 10),
		strconv.FormatInt(m.Swap, 10),
		strconv.FormatInt(m.Balance, 10),
		pipsField(m.WinningPips),
		pipsField(m.LosingPips),
		pipsField(m.NetPips),
	}
}

func pipsField(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
