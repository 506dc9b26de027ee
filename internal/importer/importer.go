package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"mt4-journal/internal/attachment"
	"mt4-journal/internal/importlog"
	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/models"
	"mt4-journal/internal/repository"
	"mt4-journal/internal/types"
)

// ErrStoreWrite wraps any failure persisting the account, statement or trades.
var ErrStoreWrite = errors.New("statement store write failed")

// Invalidator drops cached reports for an account.
type Invalidator interface {
	Invalidate(accountID uint64)
}

type Service struct {
	parser interfaces.StatementParser
	repo   repository.Repository
	files  *attachment.Store
	audit  *importlog.Log
	cache  Invalidator
	now    func() time.Time
}

var _ interfaces.Importer = (*Service)(nil)

// New builds the import service. audit and cache may be nil.
func New(parser interfaces.StatementParser, repo repository.Repository, files *attachment.Store, audit *importlog.Log, cache Invalidator) *Service {
	return &Service{
		parser: parser,
		repo:   repo,
		files:  files,
		audit:  audit,
		cache:  cache,
		now:    time.Now,
	}
}

// Import parses one statement document and stores it. Account, statement and
// trades are written in a single transaction; on failure the saved document is
// removed again and nothing is committed.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (*types.ImportResult, error) {
	parsed, err := s.parser.Parse(ctx, r)
	if err != nil {
		s.record(ctx, importlog.Entry{Status: importlog.StatusFailed, FileName: filename, Error: err.Error()})
		return nil, err
	}

	key, err := s.files.Save(parsed.AccountNumber, parsed.HTML)
	if err != nil {
		err = fmt.Errorf("save statement file: %w", err)
		s.record(ctx, importlog.Entry{Status: importlog.StatusFailed, FileName: filename, Account: parsed.AccountNumber, Error: err.Error()})
		return nil, err
	}

	account := &models.Account{
		Number:   parsed.AccountNumber,
		Name:     parsed.AccountName,
		Currency: parsed.Currency,
	}
	statement := &models.Statement{
		UploadedAt:     s.now().UTC(),
		ClosedPL:       parsed.ClosedPL,
		Balance:        parsed.Balance,
		RawGeneratedAt: parsed.GeneratedAt,
		FileKey:        key,
		FileName:       filename,
		FileSize:       int64(len(parsed.HTML)),
		TradeCount:     len(parsed.Trades),
	}
	trades := toModels(parsed.Trades)

	var upserted repository.UpsertResult
	err = s.repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpsertAccountTx(ctx, tx, account); err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}
		statement.AccountID = account.ID
		if err := s.repo.CreateStatementTx(ctx, tx, statement); err != nil {
			return fmt.Errorf("create statement: %w", err)
		}
		res, err := s.repo.UpsertTradesTx(ctx, tx, account.ID, statement.ID, trades)
		if err != nil {
			return fmt.Errorf("upsert trades: %w", err)
		}
		upserted = res
		return nil
	})
	if err != nil {
		if rmErr := s.files.Remove(key); rmErr != nil {
			logger.Error(ctx, "Failed to remove orphaned statement file", "key", key, "error", rmErr)
		}
		err = fmt.Errorf("%w: %w", ErrStoreWrite, err)
		s.record(ctx, importlog.Entry{Status: importlog.StatusFailed, FileName: filename, Account: parsed.AccountNumber, Error: err.Error()})
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(account.ID)
	}

	result := &types.ImportResult{
		AccountID:     account.ID,
		AccountNumber: account.Number,
		AccountName:   account.Name,
		StatementID:   statement.ID,
		FileKey:       key,
		TradesParsed:  len(trades),
		Created:       upserted.Created,
		Updated:       upserted.Updated,
		Warnings:      parsed.Warnings,
	}

	logger.Import(ctx, account.Number, statement.ID, len(trades), upserted.Created, upserted.Updated,
		"file_name", filename,
		"warnings", len(parsed.Warnings),
	)
	s.record(ctx, importlog.Entry{
		Status:      importlog.StatusOK,
		FileName:    filename,
		Account:     account.Number,
		StatementID: statement.ID,
		Trades:      len(trades),
		Created:     upserted.Created,
		Updated:     upserted.Updated,
		Warnings:    len(parsed.Warnings),
	})
	return result, nil
}

func (s *Service) record(ctx context.Context, e importlog.Entry) {
	if s.audit == nil {
		return
	}
	if src, ok := SourceFrom(ctx); ok {
		e.Source = src
	}
	if err := s.audit.Append(e); err != nil {
		logger.Warn(ctx, "Failed to append import log entry", "error", err)
	}
}

func toModels(records []types.TradeRecord) []models.Trade {
	out := make([]models.Trade, 0, len(records))
	for _, r := range records {
		out = append(out, models.Trade{
			Ticket:     r.Ticket,
			OpenTime:   r.OpenTime,
			TradeType:  r.TradeType,
			Size:       r.Size,
			Item:       r.Item,
			OpenPrice:  r.OpenPrice,
			SL:         r.SL,
			TP:         r.TP,
			CloseTime:  r.CloseTime,
			ClosePrice: r.ClosePrice,
			Commission: r.Commission,
			Taxes:      r.Taxes,
			Swap:       r.Swap,
			Profit:     r.Profit,
		})
	}
	return out
}

type sourceKey struct{}

// WithSource tags imports made with ctx, e.g. "upload", "inbox" or "cli".
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func SourceFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sourceKey{}).(string)
	return s, ok && s != ""
}
