// Command report prints the analytics report for an account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"mt4-journal/internal/app"
	"mt4-journal/internal/export"
	"mt4-journal/internal/report"
)

func main() {
	account := flag.String("account", "", "broker account number (required)")
	format := flag.String("format", "json", "output format: json, daily-csv or monthly-csv")
	from := flag.String("from", "", "only trades opened at or after this time")
	to := flag.String("to", "", "only trades opened at or before this time")
	tradeType := flag.String("type", "", "only this trade type")
	item := flag.String("item", "", "only this symbol")
	month := flag.String("calendar-month", "", "calendar first month, YYYY-MM")
	flag.Parse()
	if *account == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := app.InitializeSystem(); err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	a, err := app.Open(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close(ctx)

	rep, err := a.Reports.AccountReportByNumber(ctx, *account, report.Query{
		From:          *from,
		To:            *to,
		Type:          *tradeType,
		Item:          *item,
		CalendarMonth: *month,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "account %s: %v\n", *account, err)
		a.Close(ctx)
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(struct {
			Account any `json:"account"`
			Report  any `json:"report"`
		}{rep.Account, rep.Report})
	case "daily-csv":
		err = export.WriteDaily(os.Stdout, rep.Report.Daily)
	case "monthly-csv":
		err = export.WriteMonthly(os.Stdout, rep.Report.Monthly)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.Close(ctx)
		os.Exit(1)
	}
}
