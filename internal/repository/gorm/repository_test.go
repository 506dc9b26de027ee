package gormrepository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mt4-journal/internal/db/dbtest"
	"mt4-journal/internal/models"
	"mt4-journal/internal/repository"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(dbtest.Open(t).Gorm)
}

func ts(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// seed creates an account and a statement and returns their ids.
func seed(t *testing.T, s *Store, number string) (uint64, uint64) {
	t.Helper()
	ctx := context.Background()
	acc := &models.Account{Number: number, Name: "Trader " + number}
	st := &models.Statement{UploadedAt: time.Now()}
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.UpsertAccountTx(ctx, tx, acc); err != nil {
			return err
		}
		st.AccountID = acc.ID
		return s.CreateStatementTx(ctx, tx, st)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return acc.ID, st.ID
}

func upsert(t *testing.T, s *Store, accountID, statementID uint64, trades []models.Trade) repository.UpsertResult {
	t.Helper()
	ctx := context.Background()
	var res repository.UpsertResult
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		res, err = s.UpsertTradesTx(ctx, tx, accountID, statementID, trades)
		return err
	})
	if err != nil {
		t.Fatalf("upsert trades: %v", err)
	}
	return res
}

func TestUpsertAccountKeepsCurrencyWhenMissing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := &models.Account{Number: "100", Name: "Alice", Currency: "USD"}
	if err := s.InTx(ctx, func(tx *gorm.DB) error { return s.UpsertAccountTx(ctx, tx, first) }); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := &models.Account{Number: "100", Name: "Alice Smith"}
	if err := s.InTx(ctx, func(tx *gorm.DB) error { return s.UpsertAccountTx(ctx, tx, second) }); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Expected the same account id %d, got %d", first.ID, second.ID)
	}
	got, err := s.GetAccountByNumber(ctx, "100")
	if err != nil {
		t.Fatalf("GetAccountByNumber: %v", err)
	}
	if got.Name != "Alice Smith" || got.Currency != "USD" {
		t.Errorf("name=%q currency=%q want=Alice Smith/USD", got.Name, got.Currency)
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("accounts=%d err=%v want=1", len(accounts), err)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	s := newStore(t)
	if _, err := s.GetAccount(context.Background(), 42); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetStatement(context.Background(), 42); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReimportDoesNotDuplicateTrades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	accountID, firstStatement := seed(t, s, "200")

	trades := func() []models.Trade {
		return []models.Trade{
			{Ticket: "1", Item: "EURUSD", TradeType: "buy", OpenTime: ts(2024, 6, 10, 9), CloseTime: ts(2024, 6, 10, 12),
				OpenPrice: dec("1.07500"), ClosePrice: dec("1.07600"), Profit: 1000},
			{Ticket: "2", Item: "XAUUSD", TradeType: "sell", OpenTime: ts(2024, 6, 11, 3), CloseTime: ts(2024, 6, 11, 5), Profit: 500},
		}
	}

	res := upsert(t, s, accountID, firstStatement, trades())
	if res.Created != 2 || res.Updated != 0 {
		t.Errorf("created=%d updated=%d want=2/0", res.Created, res.Updated)
	}

	_, secondStatement := seed(t, s, "200")
	again := append(trades(), models.Trade{Ticket: "3", Item: "USDJPY", TradeType: "buy", OpenTime: ts(2024, 6, 12, 1), Profit: -5})
	again[0].Profit = 1200
	res = upsert(t, s, accountID, secondStatement, again)
	if res.Created != 1 || res.Updated != 2 {
		t.Errorf("created=%d updated=%d want=1/2", res.Created, res.Updated)
	}

	total, err := s.CountTrades(ctx, repository.ListTradesParams{AccountID: accountID})
	if err != nil || total != 3 {
		t.Fatalf("total=%d err=%v want=3", total, err)
	}

	all, err := s.ListTrades(ctx, repository.ListTradesParams{AccountID: accountID})
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	for _, tr := range all {
		if tr.StatementID != secondStatement {
			t.Errorf("ticket %s statement=%d want=%d", tr.Ticket, tr.StatementID, secondStatement)
		}
		if tr.Ticket == "1" {
			if tr.Profit != 1200 {
				t.Errorf("Expected replaced profit 1200, got %d", tr.Profit)
			}
			if tr.OpenPrice == nil || !tr.OpenPrice.Equal(decimal.RequireFromString("1.075")) {
				t.Errorf("Expected open price 1.075, got %v", tr.OpenPrice)
			}
		}
	}
}

func TestUpsertTradesDuplicateTicketsInOneBatch(t *testing.T) {
	s := newStore(t)
	accountID, statementID := seed(t, s, "300")
	res := upsert(t, s, accountID, statementID, []models.Trade{
		{Ticket: "7", Profit: 1},
		{Ticket: "7", Profit: 2},
	})
	if res.Created != 1 {
		t.Errorf("created=%d want=1", res.Created)
	}
	all, _ := s.ListTrades(context.Background(), repository.ListTradesParams{AccountID: accountID})
	if len(all) != 1 || all[0].Profit != 2 {
		t.Errorf("Expected the last duplicate to win, got %+v", all)
	}
}

func TestTradesAreScopedPerAccount(t *testing.T) {
	s := newStore(t)
	a, sa := seed(t, s, "400")
	b, sb := seed(t, s, "401")
	upsert(t, s, a, sa, []models.Trade{{Ticket: "1"}})
	upsert(t, s, b, sb, []models.Trade{{Ticket: "1"}})

	for _, id := range []uint64{a, b} {
		n, err := s.CountTrades(context.Background(), repository.ListTradesParams{AccountID: id})
		if err != nil || n != 1 {
			t.Errorf("account %d: count=%d err=%v want=1", id, n, err)
		}
	}
}

func TestListTradesFiltersAndOrders(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	accountID, statementID := seed(t, s, "500")
	upsert(t, s, accountID, statementID, []models.Trade{
		{Ticket: "10", TradeType: "buy", Item: "EURUSD", OpenTime: ts(2024, 6, 1, 9), CloseTime: ts(2024, 6, 3, 9)},
		{Ticket: "11", TradeType: "sell", Item: "EURUSD", OpenTime: ts(2024, 6, 2, 9), CloseTime: ts(2024, 6, 2, 10)},
		{Ticket: "12", TradeType: "buy", Item: "GBPUSD", OpenTime: ts(2024, 6, 5, 9), CloseTime: ts(2024, 6, 6, 9)},
		{Ticket: "13", TradeType: "buy", Item: "", OpenTime: ts(2024, 7, 1, 9), CloseTime: ts(2024, 7, 1, 10)},
	})

	chron, err := s.ListTrades(ctx, repository.ListTradesParams{AccountID: accountID})
	if err != nil {
		t.Fatal(err)
	}
	assertTickets(t, "chronological", chron, "11", "10", "12", "13")

	newest, _ := s.ListTrades(ctx, repository.ListTradesParams{AccountID: accountID, Order: repository.OrderNewest})
	assertTickets(t, "newest", newest, "13", "12", "11", "10")

	page, _ := s.ListTrades(ctx, repository.ListTradesParams{AccountID: accountID, Order: repository.OrderNewest, Limit: 2, Offset: 2})
	assertTickets(t, "page", page, "11", "10")

	buy := "buy"
	from, to := ts(2024, 6, 1, 12), ts(2024, 6, 30, 0)
	filtered, _ := s.ListTrades(ctx, repository.ListTradesParams{AccountID: accountID, Type: &buy, From: from, To: to})
	assertTickets(t, "filtered", filtered, "12")

	item := "EURUSD"
	byItem, _ := s.ListTrades(ctx, repository.ListTradesParams{AccountID: accountID, Item: &item})
	assertTickets(t, "by item", byItem, "11", "10")

	types, _ := s.ListTradeTypes(ctx, accountID)
	if len(types) != 2 || types[0] != "buy" || types[1] != "sell" {
		t.Errorf("Expected [buy sell], got %v", types)
	}
	items, _ := s.ListItems(ctx, accountID)
	if len(items) != 2 || items[0] != "EURUSD" || items[1] != "GBPUSD" {
		t.Errorf("Expected [EURUSD GBPUSD], got %v", items)
	}
}

func TestListStatementsNewestFirst(t *testing.T) {
	s := newStore(t)
	_, first := seed(t, s, "600")
	_, second := seed(t, s, "600")

	items, err := s.ListStatements(context.Background(), repository.ListStatementsParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != second || items[1].ID != first {
		t.Fatalf("Expected statements %d,%d got %+v", second, first, items)
	}
	if items[0].Account == nil || items[0].Account.Number != "600" {
		t.Errorf("Expected the account to be preloaded, got %+v", items[0].Account)
	}
}

func assertTickets(t *testing.T, label string, trades []models.Trade, want ...string) {
	t.Helper()
	if len(trades) != len(want) {
		t.Fatalf("%s: got %d trades want=%d", label, len(trades), len(want))
	}
	for i := range want {
		if trades[i].Ticket != want[i] {
			t.Errorf("%s: position %d = %s want=%s", label, i, trades[i].Ticket, want[i])
		}
	}
}
