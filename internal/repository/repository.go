package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mt4-journal/internal/models"
)

var ErrNotFound = errors.New("record not found")

type TradeOrder int

const (
	// OrderChronological is COALESCE(close_time, open_time) ASC, ticket ASC.
	OrderChronological TradeOrder = iota
	// OrderNewest is open_time DESC, ticket DESC.
	OrderNewest
)

type ListTradesParams struct {
	AccountID uint64
	From      *time.Time
	To        *time.Time
	Type      *string
	Item      *string
	Order     TradeOrder
	// Limit <= 0 returns every matching trade.
	Limit  int
	Offset int
}

type ListStatementsParams struct {
	AccountID *uint64
	Limit     int
	Offset    int
}

type UpsertResult struct {
	Created int
	Updated int
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error

	UpsertAccountTx(ctx context.Context, tx *gorm.DB, item *models.Account) error
	GetAccount(ctx context.Context, id uint64) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	CreateStatementTx(ctx context.Context, tx *gorm.DB, item *models.Statement) error
	GetStatement(ctx context.Context, id uint64) (*models.Statement, error)
	ListStatements(ctx context.Context, params ListStatementsParams) ([]models.Statement, error)

	// UpsertTradesTx inserts or replaces trades by (account_id, ticket). Every row,
	// changed or not, is reassigned to statementID.
	UpsertTradesTx(ctx context.Context, tx *gorm.DB, accountID, statementID uint64, items []models.Trade) (UpsertResult, error)
	ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error)
	CountTrades(ctx context.Context, params ListTradesParams) (int64, error)
	ListTradeTypes(ctx context.Context, accountID uint64) ([]string, error)
	ListItems(ctx context.Context, accountID uint64) ([]string, error)
}
