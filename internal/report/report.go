package report

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/models"
	"mt4-journal/internal/mt4time"
	"mt4-journal/internal/repository"
	"mt4-journal/internal/types"
)

const (
	cacheCleanupInterval = 30 * time.Minute
	ckAccountReport      = "report:%d:%s"
)

var allowedPerPage = map[int]bool{100: true, 1000: true}

// Query is the account page request. From and To are raw user input; values
// that do not parse are ignored.
type Query struct {
	AccountID     uint64
	From          string
	To            string
	Type          string
	Item          string
	Page          int
	PerPage       int
	CalendarMonth string
}

type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// AccountReport is everything the account page shows. Cached values are shared;
// callers must not modify them.
type AccountReport struct {
	Account    *models.Account `json:"account"`
	TradeTypes []string        `json:"trade_types"`
	Items      []string        `json:"items"`
	Trades     []models.Trade  `json:"trades"`
	Pagination Pagination      `json:"pagination"`
	Report     *types.Report   `json:"report"`
}

type Service struct {
	repo           repository.Repository
	analyzer       interfaces.Analyzer
	cache          *cache.Cache
	defaultPerPage int
	now            func() time.Time
}

func New(repo repository.Repository, analyzer interfaces.Analyzer, ttl time.Duration, defaultPerPage int) *Service {
	if !allowedPerPage[defaultPerPage] {
		defaultPerPage = 1000
	}
	return &Service{
		repo:           repo,
		analyzer:       analyzer,
		cache:          cache.New(ttl, cacheCleanupInterval),
		defaultPerPage: defaultPerPage,
		now:            time.Now,
	}
}

// AccountReport returns one page of trades plus analytics over the full filtered set.
func (s *Service) AccountReport(ctx context.Context, q Query) (*AccountReport, error) {
	q = s.normalize(q)
	key := cacheKey(q)
	if cached, ok := s.cache.Get(key); ok {
		logger.Debug(ctx, "Cache hit for account report", "account_id", q.AccountID)
		return cached.(*AccountReport), nil
	}

	account, err := s.repo.GetAccount(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	tradeTypes, err := s.repo.ListTradeTypes(ctx, q.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list trade types: %w", err)
	}
	items, err := s.repo.ListItems(ctx, q.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	params := s.tradeParams(q)
	total, err := s.repo.CountTrades(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("count trades: %w", err)
	}
	page := paginate(q.Page, q.PerPage, total)

	pageParams := params
	pageParams.Order = repository.OrderNewest
	pageParams.Limit = page.PerPage
	pageParams.Offset = (page.Page - 1) * page.PerPage
	pageTrades, err := s.repo.ListTrades(ctx, pageParams)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}

	all, err := s.repo.ListTrades(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list trades for analytics: %w", err)
	}
	rep := s.analyzer.Compute(ctx, all, types.ReportOptions{
		From:          params.From,
		To:            params.To,
		CalendarMonth: q.CalendarMonth,
		Now:           s.now(),
	})

	out := &AccountReport{
		Account:    account,
		TradeTypes: tradeTypes,
		Items:      items,
		Trades:     pageTrades,
		Pagination: page,
		Report:     rep,
	}
	s.cache.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// AccountReportByNumber resolves the account by its broker number first.
func (s *Service) AccountReportByNumber(ctx context.Context, number string, q Query) (*AccountReport, error) {
	account, err := s.repo.GetAccountByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	q.AccountID = account.ID
	return s.AccountReport(ctx, q)
}

// Invalidate drops every cached report of the account.
func (s *Service) Invalidate(accountID uint64) {
	prefix := fmt.Sprintf("report:%d:", accountID)
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
	logger.Debug(context.Background(), "Invalidated cached reports", "account_id", accountID)
}

func (s *Service) normalize(q Query) Query {
	q.From = strings.TrimSpace(q.From)
	q.To = strings.TrimSpace(q.To)
	q.Type = strings.TrimSpace(q.Type)
	q.Item = strings.TrimSpace(q.Item)
	q.CalendarMonth = strings.TrimSpace(q.CalendarMonth)
	if !allowedPerPage[q.PerPage] {
		q.PerPage = s.defaultPerPage
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func (s *Service) tradeParams(q Query) repository.ListTradesParams {
	params := repository.ListTradesParams{
		AccountID: q.AccountID,
		From:      mt4time.ParsePtr(q.From),
		To:        mt4time.ParsePtr(q.To),
		Order:     repository.OrderChronological,
	}
	if q.Type != "" {
		params.Type = &q.Type
	}
	if q.Item != "" {
		params.Item = &q.Item
	}
	return params
}

// paginate clamps page into [1, total pages]; an empty result keeps page 1.
func paginate(page, perPage int, total int64) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// cacheKey is built from the normalized query; the account id leads so Invalidate can match it.
func cacheKey(q Query) string {
	return fmt.Sprintf(ckAccountReport, q.AccountID,
		strings.Join([]string{q.From, q.To, q.Type, q.Item, fmt.Sprint(q.Page), fmt.Sprint(q.PerPage), q.CalendarMonth}, "|"))
}
