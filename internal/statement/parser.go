package statement

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/mt4time"
	"mt4-journal/internal/types"
)

var (
	accountRe  = regexp.MustCompile(`Statement:\s*(\d+)`)
	nameRe     = regexp.MustCompile(`Name:\s*([^\n\r]+)`)
	currencyRe = regexp.MustCompile(`Currency:\s*([A-Z]{3})`)
)

const (
	closedSectionLabel = "Closed Transactions:"
	closedPLLabel      = "Closed Trade P/L:"
	balanceLabel       = "Balance:"
)

// sectionTerminators end the closed transactions walk.
var sectionTerminators = []string{"Open Trades:", "Working Orders:", "Summary:"}

// Column positions of a closed transaction row. The header only locates the
// section; cells are always read in this order.
const (
	colTicket = iota
	colOpenTime
	colType
	colSize
	colItem
	colOpenPrice
	colSL
	colTP
	colCloseTime
	colClosePrice
	colCommission
	colTaxes
	colSwap
	colProfit
	columnCount
)

// Parser reads MT4 "Closed Transactions" HTML statements.
type Parser struct{}

var _ interfaces.StatementParser = (*Parser)(nil)

func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts statement metadata and the closed trades in document order.
// A document without a closed transactions section yields zero trades; only a
// missing account number or name is an error.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*types.ParsedStatement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}
	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), "text/html")
	if err != nil {
		return nil, fmt.Errorf("detect statement charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parse statement html: %w", err)
	}

	out := &types.ParsedStatement{}

	title := doc.Find("title").First().Text()
	if m := accountRe.FindStringSubmatch(title); m != nil {
		out.AccountNumber = m[1]
	}

	header := findHeaderRow(doc)
	if header != nil {
		text := rowText(header)
		if m := nameRe.FindStringSubmatch(text); m != nil {
			out.AccountName = strings.TrimSpace(m[1])
		}
		if m := currencyRe.FindStringSubmatch(text); m != nil {
			out.Currency = m[1]
		}
		if gen := strings.TrimSpace(header.Find("b").Last().Text()); gen != "" {
			if t, ok := mt4time.Parse(gen); ok {
				out.GeneratedAt = &t
			} else {
				out.Warnings = append(out.Warnings, types.ParseWarning{
					Kind: types.WarnTimestamp, Field: "generated_at", Value: gen,
				})
			}
		}
	}

	if out.AccountNumber == "" {
		return nil, &MetadataError{Field: "account_number"}
	}
	if out.AccountName == "" {
		return nil, &MetadataError{Field: "account_name"}
	}

	out.ClosedPL = Amount(labelledValue(doc, closedPLLabel))
	out.Balance = Amount(labelledValue(doc, balanceLabel))

	trades, warnings := extractClosedTransactions(doc)
	out.Trades = trades
	out.Warnings = append(out.Warnings, warnings...)

	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render statement html: %w", err)
	}
	out.HTML = []byte(html)
	return out, nil
}

// findHeaderRow returns the first table row mentioning both Account: and Name:.
func findHeaderRow(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		text := tr.Text()
		if strings.Contains(text, "Account:") && strings.Contains(text, "Name:") {
			found = tr
			return false
		}
		return true
	})
	return found
}

// rowText joins the row's cell texts with newlines so a pattern stops at a cell boundary.
func rowText(tr *goquery.Selection) string {
	cells := tr.ChildrenFiltered("td,th")
	if cells.Length() == 0 {
		return tr.Text()
	}
	parts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		parts = append(parts, c.Text())
	})
	return strings.Join(parts, "\n")
}

// labelledValue reads the bold value in the cell following a bold label cell.
func labelledValue(doc *goquery.Document, label string) string {
	b := doc.Find("b").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == label
	}).First()
	if b.Length() == 0 {
		return ""
	}
	return b.Parent().NextAllFiltered("td").ChildrenFiltered("b").First().Text()
}

// closedTransactionsTable finds the table holding the first row after the
// "Closed Transactions:" label row, in document order.
func closedTransactionsTable(doc *goquery.Document) *goquery.Selection {
	rows := doc.Find("tr")
	marker := -1
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		hit := tr.ChildrenFiltered("td").ChildrenFiltered("b").FilterFunction(func(_ int, b *goquery.Selection) bool {
			return strings.Contains(b.Text(), closedSectionLabel)
		}).Length() > 0
		if hit {
			marker = i
			return false
		}
		return true
	})
	if marker < 0 {
		return nil
	}
	markerRow := rows.Eq(marker)
	for i := marker + 1; i < rows.Length(); i++ {
		next := rows.Eq(i)
		// rows nested inside the marker row are not "following" it
		if markerRow.Find("tr").IndexOfSelection(next) >= 0 {
			continue
		}
		table := next.Closest("table")
		if table.Length() == 0 {
			return nil
		}
		return table
	}
	return nil
}

func isHeaderRow(tr *goquery.Selection) bool {
	seen := map[string]bool{}
	tr.ChildrenFiltered("td,th").Each(func(_ int, c *goquery.Selection) {
		seen[strings.ToLower(strings.TrimSpace(c.Text()))] = true
	})
	return seen["ticket"] && seen["open time"] && seen["profit"]
}

func extractClosedTransactions(doc *goquery.Document) ([]types.TradeRecord, []types.ParseWarning) {
	table := closedTransactionsTable(doc)
	if table == nil {
		return nil, nil
	}

	var header *goquery.Selection
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if isHeaderRow(tr) {
			header = tr
			return false
		}
		return true
	})
	if header == nil {
		return nil, nil
	}

	var (
		trades   []types.TradeRecord
		warnings []types.ParseWarning
	)
	rowNum := 0
	for cur := header.Next(); cur.Length() > 0; cur = cur.Next() {
		rowNum++
		text := strings.TrimSpace(cur.Text())
		if hasAnyPrefix(text, sectionTerminators) {
			break
		}

		cells := cur.ChildrenFiltered("td")
		if cells.Length() < columnCount {
			if text != "" {
				warnings = append(warnings, types.ParseWarning{
					Kind: types.WarnMalformedRow, Row: rowNum, Value: truncate(text, 80),
				})
			}
			continue
		}

		values := make([]string, cells.Length())
		cells.Each(func(i int, c *goquery.Selection) {
			values[i] = strings.TrimSpace(c.Text())
		})
		if values[colTicket] == "" {
			warnings = append(warnings, types.ParseWarning{
				Kind: types.WarnMalformedRow, Row: rowNum, Field: "ticket",
			})
			continue
		}

		rec := types.TradeRecord{
			Ticket:     values[colTicket],
			TradeType:  values[colType],
			Size:       Decimal(values[colSize]),
			Item:       values[colItem],
			OpenPrice:  Decimal(values[colOpenPrice]),
			SL:         Decimal(values[colSL]),
			TP:         Decimal(values[colTP]),
			ClosePrice: Decimal(values[colClosePrice]),
			Commission: Amount(values[colCommission]),
			Taxes:      Amount(values[colTaxes]),
			Swap:       Amount(values[colSwap]),
			Profit:     Amount(values[colProfit]),
		}
		var w *types.ParseWarning
		rec.OpenTime, w = timestamp(values[colOpenTime], rowNum, "open_time")
		if w != nil {
			warnings = append(warnings, *w)
		}
		rec.CloseTime, w = timestamp(values[colCloseTime], rowNum, "close_time")
		if w != nil {
			warnings = append(warnings, *w)
		}
		trades = append(trades, rec)
	}
	return trades, warnings
}

// timestamp is nil for blank input and nil plus a warning for unparseable input.
func timestamp(s string, row int, field string) (*time.Time, *types.ParseWarning) {
	if s == "" {
		return nil, nil
	}
	t, ok := mt4time.Parse(s)
	if !ok {
		return nil, &types.ParseWarning{Kind: types.WarnTimestamp, Row: row, Field: field, Value: s}
	}
	return &t, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
