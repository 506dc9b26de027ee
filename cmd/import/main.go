// Command import loads MT4 statements from local paths or URLs.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"mt4-journal/internal/app"
	"mt4-journal/internal/fetch"
	"mt4-journal/internal/importer"
	"mt4-journal/internal/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <path-or-url>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := app.InitializeSystem(); err != nil {
		log.Fatal(err)
	}
	ctx := importer.WithSource(context.Background(), "cli")

	a, err := app.Open(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close(context.Background())

	fetcher := fetch.New(a.Config.Fetch)
	failed := 0
	for _, loc := range flag.Args() {
		doc, err := fetcher.Fetch(ctx, loc)
		if err != nil {
			logger.ErrorWithErr(ctx, "Fetch failed", err, "location", loc)
			fmt.Fprintf(os.Stderr, "%s: %v\n", loc, err)
			failed++
			continue
		}
		res, err := a.Importer.Import(ctx, doc.Name, bytes.NewReader(doc.Body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", loc, err)
			failed++
			continue
		}
		fmt.Printf("%s: account %s (%s) statement #%d: %d trades, %d created, %d updated, %d warnings\n",
			loc, res.AccountNumber, res.AccountName, res.StatementID,
			res.TradesParsed, res.Created, res.Updated, len(res.Warnings))
	}
	if failed > 0 {
		a.Close(context.Background())
		os.Exit(1)
	}
}
