package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/6inq/flippr/internal/model"
	"github.com/6inq/flippr/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.New(nil, nil)
	srv := httptest.NewServer(NewServer(st, "127.0.0.1:0").Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAddBuyOrder_Endpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/orders/buy", map[string]any{
		"item": "Yew logs", "price": 450, "qty": 100,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var order model.BuyOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.Total != 45000 || order.ID == "" {
		t.Errorf("order = %+v", order)
	}
}

func TestAddBuyOrder_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/orders/buy", map[string]any{"item": "", "price": 100})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLinkAndComplete_Flow(t *testing.T) {
	srv, st := newTestServer(t)

	buy, _ := st.AddBuyOrder("Iron ore", 100, 10)
	sell, _ := st.AddSellOrder("Iron ore", 150, 10)

	resp := postJSON(t, srv.URL+"/api/orders/link", map[string]string{
		"buyId": buy.ID, "sellId": sell.ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("link status = %d", resp.StatusCode)
	}

	resp = postJSON(t, fmt.Sprintf("%s/api/orders/buy/%s/complete", srv.URL, buy.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete buy status = %d", resp.StatusCode)
	}

	resp = postJSON(t, fmt.Sprintf("%s/api/orders/sell/%s/complete", srv.URL, sell.ID), nil)
	var result struct {
		Flip *model.CompletedFlip `json:"flip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Flip == nil {
		t.Fatal("expected finalized flip in response")
	}
	if result.Flip.Profit != 485 {
		t.Errorf("profit = %d, want 485", result.Flip.Profit)
	}
}

func TestComplete_UnknownOrderIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/orders/buy/nope/complete", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	srv, st := newTestServer(t)
	buy, _ := st.AddBuyOrder("Coal", 150, 10)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/orders/buy/"+buy.ID)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status without confirm = %d, want 400", resp.StatusCode)
	}
	if len(st.Snapshot().BuyOrders) != 1 {
		t.Fatal("order deleted without confirmation")
	}

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/orders/buy/"+buy.ID+"?confirm=true")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status with confirm = %d, want 204", resp.StatusCode)
	}
	if len(st.Snapshot().BuyOrders) != 0 {
		t.Error("order not deleted")
	}
}

func TestWatchlist_Endpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/watchlist", map[string]string{"item": "Magic logs"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/watchlist")
	var list []string
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0] != "Magic logs" {
		t.Errorf("watchlist = %v", list)
	}

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/watchlist/Magic%20logs")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("remove status = %d", resp.StatusCode)
	}
}

func TestManualItemEntry(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/items", map[string]any{
		"item": "Yew logs", "buyPrice": 450, "sellPrice": 470, "limit": 10000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var entry model.ItemEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.ProfitPerItem != 16 {
		t.Errorf("profit per item = %d, want 16", entry.ProfitPerItem)
	}
}

func TestReset_RequiresConfirmation(t *testing.T) {
	srv, st := newTestServer(t)
	st.AddBuyOrder("Coal", 150, 10)

	resp := postJSON(t, srv.URL+"/api/reset", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/reset?confirm=true", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if len(st.Snapshot().BuyOrders) != 0 {
		t.Error("state not reset")
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	srv, st := newTestServer(t)
	st.AddBuyOrder("Yew logs", 450, 100)
	st.AddWatch("Magic logs")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/export")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	var export model.ExportFile
	if err := json.NewDecoder(resp.Body).Decode(&export); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if export.Version != model.ExportVersion {
		t.Errorf("version = %q", export.Version)
	}

	// a fresh server importing the backup ends up with the same collections
	srv2, st2 := newTestServer(t)
	resp = postJSON(t, srv2.URL+"/api/import", export)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	snap := st2.Snapshot()
	if len(snap.BuyOrders) != 1 || len(snap.Watchlist) != 1 {
		t.Errorf("imported state: %d buy, %v watchlist", len(snap.BuyOrders), snap.Watchlist)
	}
}

func TestStats_Endpoint(t *testing.T) {
	srv, st := newTestServer(t)

	buy, _ := st.AddBuyOrder("Iron ore", 100, 10)
	sell, _ := st.AddSellOrder("Iron ore", 150, 10)
	st.Link(buy.ID, sell.ID)
	st.CompleteBuy(buy.ID)
	st.CompleteSell(sell.ID)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/stats")
	var sum struct {
		TotalProfit        int64  `json:"totalProfit"`
		TotalProfitDisplay string `json:"totalProfitDisplay"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.TotalProfit != 485 {
		t.Errorf("total profit = %d, want 485", sum.TotalProfit)
	}
	if sum.TotalProfitDisplay != "485 gp" {
		t.Errorf("display = %q", sum.TotalProfitDisplay)
	}
}
