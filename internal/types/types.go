package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one row of the Closed Transactions table, positionally decoded.
type TradeRecord struct {
	Ticket     string
	OpenTime   *time.Time
	TradeType  string
	Size       *decimal.Decimal
	Item       string
	OpenPrice  *decimal.Decimal
	SL         *decimal.Decimal
	TP         *decimal.Decimal
	CloseTime  *time.Time
	ClosePrice *decimal.Decimal
	Commission int64
	Taxes      int64
	Swap       int64
	Profit     int64
}

type WarningKind string

const (
	WarnMalformedRow WarningKind = "malformed_row"
	WarnTimestamp    WarningKind = "timestamp_parse_failure"
)

// ParseWarning describes a recoverable anomaly; the row (or field) was skipped or nulled.
type ParseWarning struct {
	Kind  WarningKind `json:"kind"`
	Row   int         `json:"row"`
	Field string      `json:"field,omitempty"`
	Value string      `json:"value,omitempty"`
}

// ParsedStatement is the statement-level metadata plus the ordered closed trades.
type ParsedStatement struct {
	AccountNumber string
	AccountName   string
	Currency      string
	ClosedPL      int64
	Balance       int64
	GeneratedAt   *time.Time
	Trades        []TradeRecord
	Warnings      []ParseWarning
	// HTML is the document re-serialized as UTF-8, kept as the statement attachment.
	HTML []byte
}

// ImportResult summarizes one statement import.
type ImportResult struct {
	AccountID     uint64         `json:"account_id"`
	AccountNumber string         `json:"account_number"`
	AccountName   string         `json:"account_name"`
	StatementID   uint64         `json:"statement_id"`
	FileKey       string         `json:"file_key"`
	TradesParsed  int            `json:"trades_parsed"`
	Created       int            `json:"created"`
	Updated       int            `json:"updated"`
	Warnings      []ParseWarning `json:"warnings,omitempty"`
}
