package pips

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxMagnitude bounds pip values accepted by the aggregations; anything larger is
// treated as a broken price column.
const MaxMagnitude = 100000

// Rule maps a class of instrument symbols to the price move that counts as one pip.
type Rule struct {
	Name  string
	Unit  decimal.Decimal
	Match func(symbol string) bool
}

// saturation is returned for quotients too large for an int; it always fails Usable.
var saturation = decimal.NewFromInt(math.MaxInt32)

// DefaultUnit applies to plain currency pairs.
var DefaultUnit = decimal.RequireFromString("0.0001")

// Rules are evaluated top to bottom against the upper-cased, trimmed symbol.
var Rules = []Rule{
	{Name: "gold", Unit: decimal.RequireFromString("0.1"), Match: isGold},
	{Name: "bitcoin", Unit: decimal.NewFromInt(10), Match: isBitcoin},
	{Name: "index", Unit: decimal.NewFromInt(10), Match: isNikkei},
	{Name: "jpy", Unit: decimal.RequireFromString("0.01"), Match: func(s string) bool { return strings.Contains(s, "JPY") }},
}

func isGold(s string) bool {
	return s == "XAUUSD" || s == "GOLD" ||
		strings.HasPrefix(s, "XAU") || strings.Contains(s, "XAU") ||
		strings.Contains(s, "GOLD")
}

func isBitcoin(s string) bool {
	return s == "BTCUSD" || s == "BTC/USD" ||
		strings.HasPrefix(s, "BTC") || strings.Contains(s, "BTCUSD") ||
		strings.Contains(s, "BITCOIN")
}

func isNikkei(s string) bool {
	return s == "JPN225" || s == "N225" || s == "NIKKEI225" ||
		strings.Contains(s, "JPN225") || strings.Contains(s, "N225") ||
		strings.Contains(s, "NIKKEI")
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// UnitFor returns the pip unit for a symbol.
func UnitFor(symbol string) decimal.Decimal {
	_, unit := classify(symbol)
	return unit
}

// RuleName returns the name of the matching rule, or "default".
func RuleName(symbol string) string {
	name, _ := classify(symbol)
	return name
}

func classify(symbol string) (string, decimal.Decimal) {
	s := normalize(symbol)
	for _, r := range Rules {
		if r.Match(s) {
			return r.Name, r.Unit
		}
	}
	return "default", DefaultUnit
}

// IsBuy reports whether the trade direction is a buy; anything else counts as a sell.
func IsBuy(tradeType string) bool {
	return strings.EqualFold(strings.TrimSpace(tradeType), "buy")
}

// Calculate returns the signed pip result of a trade, rounded half away from zero.
// ok is false when the symbol is blank or either price is missing or zero.
// Results beyond the int32 range saturate.
func Calculate(symbol string, open, close *decimal.Decimal, tradeType string) (int, bool) {
	if open == nil || close == nil || normalize(symbol) == "" {
		return 0, false
	}
	if open.IsZero() || close.IsZero() {
		return 0, false
	}
	diff := close.Sub(*open).Div(UnitFor(symbol))
	if !IsBuy(tradeType) {
		diff = diff.Neg()
	}
	diff = diff.Round(0)
	if diff.Abs().GreaterThan(saturation) {
		if diff.IsNegative() {
			return -math.MaxInt32, true
		}
		return math.MaxInt32, true
	}
	return int(diff.IntPart()), true
}

// Usable reports whether p passes the parse-error guard.
func Usable(p int) bool {
	return p >= -MaxMagnitude && p <= MaxMagnitude
}
