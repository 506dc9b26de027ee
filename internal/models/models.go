package models

import (
	"time"

	"github.com/shopspring/decimal"

	"mt4-journal/internal/mt4time"
	"mt4-journal/internal/pips"
)

// Account is a broker trading account, identified by its broker-assigned number.
type Account struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Number   string `gorm:"type:varchar(32);not null;uniqueIndex" json:"number"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Currency string `gorm:"type:varchar(3)" json:"currency,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// Statement records one successful import of a broker statement. Immutable once created.
type Statement struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID      uint64     `gorm:"not null;index" json:"account_id"`
	Account        *Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	UploadedAt     time.Time  `gorm:"not null" json:"uploaded_at"`
	ClosedPL       int64      `gorm:"column:closed_pl" json:"closed_pl"`
	Balance        int64      `json:"balance"`
	RawGeneratedAt *time.Time `json:"raw_generated_at,omitempty"`

	FileKey    string `gorm:"type:varchar(255)" json:"file_key"`
	FileName   string `gorm:"type:varchar(255)" json:"file_name"`
	FileSize   int64  `json:"file_size"`
	TradeCount int    `json:"trade_count"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Statement) TableName() string {
	return "statements"
}

// Trade is one closed position. (AccountID, Ticket) is unique; StatementID points at the
// most recent import that touched the row.
type Trade struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   uint64 `gorm:"not null;uniqueIndex:idx_trades_account_ticket,priority:1;index" json:"account_id"`
	StatementID uint64 `gorm:"not null;index" json:"statement_id"`
	Ticket      string `gorm:"type:varchar(64);not null;uniqueIndex:idx_trades_account_ticket,priority:2" json:"ticket"`

	OpenTime   *time.Time       `gorm:"index" json:"open_time,omitempty"`
	TradeType  string           `gorm:"type:varchar(32)" json:"trade_type"`
	Size       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"size,omitempty"`
	Item       string           `gorm:"type:varchar(64)" json:"item"`
	OpenPrice  *decimal.Decimal `gorm:"type:numeric(20,6)" json:"open_price,omitempty"`
	SL         *decimal.Decimal `gorm:"column:sl;type:numeric(20,6)" json:"sl,omitempty"`
	TP         *decimal.Decimal `gorm:"column:tp;type:numeric(20,6)" json:"tp,omitempty"`
	CloseTime  *time.Time       `json:"close_time,omitempty"`
	ClosePrice *decimal.Decimal `gorm:"type:numeric(20,6)" json:"close_price,omitempty"`
	Commission int64            `json:"commission"`
	Taxes      int64            `json:"taxes"`
	Swap       int64            `json:"swap"`
	Profit     int64            `json:"profit"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// OpenTimeObserver is the open time in the observer zone, nil when unknown.
func (t *Trade) OpenTimeObserver() *time.Time {
	return mt4time.ToObserverPtr(t.OpenTime)
}

// CloseTimeObserver is the close time in the observer zone, nil when unknown.
func (t *Trade) CloseTimeObserver() *time.Time {
	return mt4time.ToObserverPtr(t.CloseTime)
}

// Pips returns the normalized price move; ok is false when it cannot be computed.
func (t *Trade) Pips() (int, bool) {
	return pips.Calculate(t.Item, t.OpenPrice, t.ClosePrice, t.TradeType)
}

func (t *Trade) IsBuy() bool {
	return pips.IsBuy(t.TradeType)
}

func (t *Trade) IsWin() bool {
	return t.Profit > 0
}

func (t *Trade) IsLoss() bool {
	return t.Profit < 0
}

// Net is the cash result used by the equity curve (taxes excluded).
func (t *Trade) Net() int64 {
	return t.Profit + t.Commission + t.Swap
}
