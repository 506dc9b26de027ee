package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"mt4-journal/internal/analytics"
	"mt4-journal/internal/db/dbtest"
	"mt4-journal/internal/models"
	"mt4-journal/internal/repository"
	gormrepository "mt4-journal/internal/repository/gorm"
)

func at(day, hour int) *time.Time {
	t := time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
	return &t
}

// seed stores n trades for the account, one per hour starting 2024-06-01 00:00,
// alternating buy EURUSD wins and sell USDJPY losses.
func seed(t *testing.T, store *gormrepository.Store, number string, n int) uint64 {
	t.Helper()
	ctx := context.Background()
	acct := &models.Account{Number: number, Name: "Trader " + number}
	err := store.InTx(ctx, func(tx *gorm.DB) error {
		if err := store.UpsertAccountTx(ctx, tx, acct); err != nil {
			return err
		}
		st := &models.Statement{AccountID: acct.ID, UploadedAt: time.Now()}
		if err := store.CreateStatementTx(ctx, tx, st); err != nil {
			return err
		}
		trades := make([]models.Trade, 0, n)
		for i := 0; i < n; i++ {
			tr := models.Trade{
				Ticket:    fmt.Sprintf("%05d", i+1),
				OpenTime:  at(1+i/24, i%24),
				CloseTime: at(1+i/24, i%24),
				TradeType: "buy",
				Item:      "eurusd",
				Profit:    100,
			}
			if i%2 == 1 {
				tr.TradeType = "sell"
				tr.Item = "usdjpy"
				tr.Profit = -50
			}
			trades = append(trades, tr)
		}
		_, err := store.UpsertTradesTx(ctx, tx, acct.ID, st.ID, trades)
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return acct.ID
}

func newService(t *testing.T) (*Service, *gormrepository.Store) {
	t.Helper()
	store := gormrepository.New(dbtest.Open(t).Gorm)
	svc := New(store, analytics.NewEngine(), time.Minute, 1000)
	svc.now = func() time.Time { return time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestAccountReportPagination(t *testing.T) {
	svc, store := newService(t)
	id := seed(t, store, "1001", 250)

	rep, err := svc.AccountReport(context.Background(), Query{AccountID: id, PerPage: 100, Page: 3})
	if err != nil {
		t.Fatalf("AccountReport: %v", err)
	}
	if rep.Pagination.TotalPages != 3 || rep.Pagination.Total != 250 {
		t.Errorf("Expected 3 pages of 250 trades, got %+v", rep.Pagination)
	}
	if len(rep.Trades) != 50 {
		t.Errorf("Expected 50 trades on the last page, got %d", len(rep.Trades))
	}
	// newest first: the last page holds the oldest trades
	if rep.Trades[len(rep.Trades)-1].Ticket != "00001" {
		t.Errorf("Expected oldest trade last, got %s", rep.Trades[len(rep.Trades)-1].Ticket)
	}
	if rep.Report.Summary.TotalTrades != 250 {
		t.Errorf("Expected analytics over all 250 trades, got %d", rep.Report.Summary.TotalTrades)
	}
}

func TestAccountReportClampsPageAndPerPage(t *testing.T) {
	svc, store := newService(t)
	id := seed(t, store, "1002", 10)

	rep, err := svc.AccountReport(context.Background(), Query{AccountID: id, PerPage: 37, Page: 99})
	if err != nil {
		t.Fatalf("AccountReport: %v", err)
	}
	if rep.Pagination.PerPage != 1000 {
		t.Errorf("Expected default per_page 1000, got %d", rep.Pagination.PerPage)
	}
	if rep.Pagination.Page != 1 || len(rep.Trades) != 10 {
		t.Errorf("Expected page 1 with 10 trades, got page %d with %d", rep.Pagination.Page, len(rep.Trades))
	}

	rep, err = svc.AccountReport(context.Background(), Query{AccountID: id, Page: -4})
	if err != nil {
		t.Fatalf("AccountReport: %v", err)
	}
	if rep.Pagination.Page != 1 {
		t.Errorf("Expected page 1, got %d", rep.Pagination.Page)
	}
}

func TestAccountReportFilters(t *testing.T) {
	svc, store := newService(t)
	id := seed(t, store, "1003", 48)

	rep, err := svc.AccountReport(context.Background(), Query{AccountID: id, Type: "buy", From: "2024-06-02", To: "not a date"})
	if err != nil {
		t.Fatalf("AccountReport: %v", err)
	}
	if rep.Pagination.Total != 12 {
		t.Errorf("Expected 12 buys on the second day, got %d", rep.Pagination.Total)
	}
	for _, tr := range rep.Trades {
		if tr.TradeType != "buy" {
			t.Errorf("Expected only buys, got %s", tr.TradeType)
		}
	}
	if rep.Report.Summary.LosingTrades != 0 {
		t.Errorf("Expected no losses among buys, got %d", rep.Report.Summary.LosingTrades)
	}
	if len(rep.TradeTypes) != 2 || rep.TradeTypes[0] != "buy" || rep.TradeTypes[1] != "sell" {
		t.Errorf("Expected filter options over all trades, got %v", rep.TradeTypes)
	}
	if len(rep.Items) != 2 {
		t.Errorf("Expected 2 items, got %v", rep.Items)
	}
}

func TestAccountReportNotFound(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.AccountReport(context.Background(), Query{AccountID: 42}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AccountReportByNumber(context.Background(), "nope", Query{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAccountReportCacheAndInvalidate(t *testing.T) {
	svc, store := newService(t)
	id := seed(t, store, "1004", 4)
	other := seed(t, store, "1005", 2)
	ctx := context.Background()

	first, err := svc.AccountReport(ctx, Query{AccountID: id})
	if err != nil {
		t.Fatalf("AccountReport: %v", err)
	}
	if _, err := svc.AccountReport(ctx, Query{AccountID: other}); err != nil {
		t.Fatalf("AccountReport: %v", err)
	}
	again, _ := svc.AccountReport(ctx, Query{AccountID: id})
	if again != first {
		t.Error("Expected the cached report to be returned")
	}

	svc.Invalidate(id)
	if svc.cache.ItemCount() != 1 {
		t.Errorf("Expected only the other account cached, got %d entries", svc.cache.ItemCount())
	}
	fresh, _ := svc.AccountReport(ctx, Query{AccountID: id})
	if fresh == first {
		t.Error("Expected a recomputed report after invalidation")
	}
}

func TestAccountReportByNumber(t *testing.T) {
	svc, store := newService(t)
	seed(t, store, "1006", 3)
	rep, err := svc.AccountReportByNumber(context.Background(), " 1006 ", Query{})
	if err != nil {
		t.Fatalf("AccountReportByNumber: %v", err)
	}
	if rep.Account.Number != "1006" || rep.Pagination.Total != 3 {
		t.Errorf("Expected account 1006 with 3 trades, got %s with %d", rep.Account.Number, rep.Pagination.Total)
	}
}
