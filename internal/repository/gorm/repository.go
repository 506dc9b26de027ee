package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mt4-journal/internal/models"
	"mt4-journal/internal/repository"
)

const (
	upsertBatchSize = 200
	lookupChunkSize = 500
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// --- accounts ----------------------------------------------------------------

func (s *Store) UpsertAccountTx(ctx context.Context, tx *gorm.DB, item *models.Account) error {
	if item == nil || strings.TrimSpace(item.Number) == "" {
		return errors.New("account number is required")
	}
	updates := []string{"name", "updated_at"}
	if item.Currency != "" {
		updates = append(updates, "currency")
	}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(item).Error; err != nil {
		return err
	}
	// the conflict path does not reliably return the existing id on every driver
	var saved models.Account
	if err := tx.WithContext(ctx).Where("number = ?", item.Number).First(&saved).Error; err != nil {
		return err
	}
	*item = saved
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uint64) (*models.Account, error) {
	var item models.Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	var item models.Account
	err := s.db.WithContext(ctx).Where("number = ?", strings.TrimSpace(number)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var items []models.Account
	if err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Order("name asc").
		Order("number asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- statements --------------------------------------------------------------

func (s *Store) CreateStatementTx(ctx context.Context, tx *gorm.DB, item *models.Statement) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Omit("Account").Create(item).Error
}

func (s *Store) GetStatement(ctx context.Context, id uint64) (*models.Statement, error) {
	var item models.Statement
	err := s.db.WithContext(ctx).
		Preload("Account").
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStatements(ctx context.Context, params repository.ListStatementsParams) ([]models.Statement, error) {
	query := s.db.WithContext(ctx).Model(&models.Statement{}).Preload("Account")
	if params.AccountID != nil {
		query = query.Where("account_id = ?", *params.AccountID)
	}
	query = query.Order("created_at desc").Order("id desc")
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}
	var items []models.Statement
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- trades ------------------------------------------------------------------

var tradeUpdateColumns = []string{
	"statement_id",
	"open_time",
	"trade_type",
	"size",
	"item",
	"open_price",
	"sl",
	"tp",
	"close_time",
	"close_price",
	"commission",
	"taxes",
	"swap",
	"profit",
	"updated_at",
}

func (s *Store) UpsertTradesTx(ctx context.Context, tx *gorm.DB, accountID, statementID uint64, items []models.Trade) (repository.UpsertResult, error) {
	var res repository.UpsertResult
	items = dedupeByTicket(items)
	if len(items) == 0 {
		return res, nil
	}

	tickets := make([]string, 0, len(items))
	for i := range items {
		items[i].ID = 0
		items[i].AccountID = accountID
		items[i].StatementID = statementID
		tickets = append(tickets, items[i].Ticket)
	}

	existing := make(map[string]struct{}, len(tickets))
	for start := 0; start < len(tickets); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(tickets))
		var found []string
		if err := tx.WithContext(ctx).
			Model(&models.Trade{}).
			Where("account_id = ?", accountID).
			Where("ticket IN ?", tickets[start:end]).
			Pluck("ticket", &found).Error; err != nil {
			return res, err
		}
		for _, t := range found {
			existing[t] = struct{}{}
		}
	}

	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "ticket"}},
		DoUpdates: clause.AssignmentColumns(tradeUpdateColumns),
	}).CreateInBatches(&items, upsertBatchSize).Error; err != nil {
		return res, err
	}

	res.Updated = len(existing)
	res.Created = len(items) - res.Updated
	return res, nil
}

// dedupeByTicket keeps the last occurrence of each ticket, preserving first-seen order.
func dedupeByTicket(items []models.Trade) []models.Trade {
	pos := make(map[string]int, len(items))
	out := make([]models.Trade, 0, len(items))
	for _, it := range items {
		if i, ok := pos[it.Ticket]; ok {
			out[i] = it
			continue
		}
		pos[it.Ticket] = len(out)
		out = append(out, it)
	}
	return out
}

func (s *Store) filteredTrades(ctx context.Context, params repository.ListTradesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Trade{}).Where("account_id = ?", params.AccountID)
	if params.From != nil && !params.From.IsZero() {
		query = query.Where("open_time >= ?", *params.From)
	}
	if params.To != nil && !params.To.IsZero() {
		query = query.Where("open_time <= ?", *params.To)
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("trade_type = ?", strings.TrimSpace(*params.Type))
	}
	if params.Item != nil && strings.TrimSpace(*params.Item) != "" {
		query = query.Where("item = ?", strings.TrimSpace(*params.Item))
	}
	return query
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	query := s.filteredTrades(ctx, params)
	switch params.Order {
	case repository.OrderNewest:
		query = query.Order("open_time desc").Order("ticket desc")
	default:
		query = query.Order("COALESCE(close_time, open_time) asc").Order("ticket asc")
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}
	var items []models.Trade
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	var total int64
	if err := s.filteredTrades(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListTradeTypes(ctx context.Context, accountID uint64) ([]string, error) {
	return s.distinct(ctx, accountID, "trade_type")
}

func (s *Store) ListItems(ctx context.Context, accountID uint64) ([]string, error) {
	return s.distinct(ctx, accountID, "item")
}

func (s *Store) distinct(ctx context.Context, accountID uint64, column string) ([]string, error) {
	var out []string
	if err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("account_id = ?", accountID).
		Where(column+" IS NOT NULL").
		Where(column+" <> ''").
		Distinct(column).
		Order(column+" asc").
		Pluck(column, &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
