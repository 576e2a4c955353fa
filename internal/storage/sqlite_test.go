package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/6inq/flippr/internal/model"
)

func openTestPersister(t *testing.T) *SQLitePersister {
	t.Helper()
	p, err := NewSQLitePersister(filepath.Join(t.TempDir(), "flippr.db"))
	if err != nil {
		t.Fatalf("open persister: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestLoad_EmptyDatabase(t *testing.T) {
	p := openTestPersister(t)
	snap, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot from empty database, got %+v", snap)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	p := openTestPersister(t)

	now := time.Now().Truncate(time.Second)
	in := &model.Snapshot{
		BuyOrders: []model.BuyOrder{
			{ID: "b1", Item: "Yew logs", Price: 450, Qty: 100, Bought: 30, Total: 45000, CreatedAt: now},
		},
		SellOrders: []model.SellOrder{
			{ID: "s1", Item: "Yew logs", Price: 470, Qty: 100, CreatedAt: now, LinkedBuyID: "b1"},
		},
		CompletedFlips: []model.CompletedFlip{
			{ID: "f1", Item: "Iron ore", Qty: 10, Profit: 485, Timestamp: now},
		},
		Watchlist: []string{"Magic logs"},
		Stats:     model.Stats{TotalProfit: 485, TotalFlips: 1, ProfitableFlips: 1, BestFlip: 485, StartDate: now},
		ItemTracking: map[string]*model.ItemEntry{
			"Yew logs": {BuyPrice: 450, SellPrice: 470, ProfitPerItem: 16, LastSeen: now, TotalChecked: 2},
		},
	}
	if err := p.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out == nil {
		t.Fatal("expected snapshot after save")
	}
	if len(out.BuyOrders) != 1 || out.BuyOrders[0].Bought != 30 {
		t.Errorf("buy orders = %+v", out.BuyOrders)
	}
	if len(out.SellOrders) != 1 || out.SellOrders[0].LinkedBuyID != "b1" {
		t.Errorf("sell orders = %+v", out.SellOrders)
	}
	if out.Stats.TotalProfit != 485 {
		t.Errorf("stats = %+v", out.Stats)
	}
	entry, ok := out.ItemTracking["Yew logs"]
	if !ok || entry.TotalChecked != 2 {
		t.Errorf("item tracking = %+v", out.ItemTracking)
	}
	if len(out.Watchlist) != 1 || out.Watchlist[0] != "Magic logs" {
		t.Errorf("watchlist = %v", out.Watchlist)
	}
}

func TestSave_OverwritesPrevious(t *testing.T) {
	p := openTestPersister(t)

	if err := p.Save(&model.Snapshot{Watchlist: []string{"a", "b"}}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := p.Save(&model.Snapshot{Watchlist: []string{"c"}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	out, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Watchlist) != 1 || out.Watchlist[0] != "c" {
		t.Errorf("watchlist = %v, want full overwrite", out.Watchlist)
	}
}
