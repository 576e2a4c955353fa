// Package api exposes the admin HTTP surface: order management, the
// tracking ledger, watchlist, stats, and backup export/import.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/6inq/flippr/internal/model"
	"github.com/6inq/flippr/internal/stats"
	"github.com/6inq/flippr/internal/store"
)

// Server wraps the store behind JSON endpoints.
type Server struct {
	store *store.Store
	addr  string
	http  *http.Server
}

func NewServer(st *store.Store, addr string) *Server {
	s := &Server{store: st, addr: addr}
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("POST /api/orders/buy", s.handleAddBuy)
	mux.HandleFunc("POST /api/orders/sell", s.handleAddSell)
	mux.HandleFunc("POST /api/orders/link", s.handleLink)
	mux.HandleFunc("POST /api/orders/buy/{id}/complete", s.handleCompleteBuy)
	mux.HandleFunc("POST /api/orders/sell/{id}/complete", s.handleCompleteSell)
	mux.HandleFunc("DELETE /api/orders/buy/{id}", s.handleDeleteBuy)
	mux.HandleFunc("DELETE /api/orders/sell/{id}", s.handleDeleteSell)

	mux.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	mux.HandleFunc("POST /api/watchlist", s.handleAddWatch)
	mux.HandleFunc("DELETE /api/watchlist/{item}", s.handleRemoveWatch)

	mux.HandleFunc("POST /api/items", s.handleAddItem)
	mux.HandleFunc("DELETE /api/items/{name}", s.handleRemoveItem)
	mux.HandleFunc("DELETE /api/items", s.handleClearItems)

	mux.HandleFunc("POST /api/flips/clear", s.handleClearCompleted)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	return mux
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] api listening on %s", s.addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stats.Compute(s.store.Snapshot()))
}

type orderRequest struct {
	Item  string `json:"item"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

func (s *Server) handleAddBuy(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := s.store.AddBuyOrder(req.Item, req.Price, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleAddSell(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := s.store.AddSellOrder(req.Item, req.Price, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BuyID  string `json:"buyId"`
		SellID string `json:"sellId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.Link(req.BuyID, req.SellID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"linked": true})
}

type completeResponse struct {
	Completed bool                 `json:"completed"`
	Flip      *model.CompletedFlip `json:"flip,omitempty"`
}

func (s *Server) handleCompleteBuy(w http.ResponseWriter, r *http.Request) {
	flip, err := s.store.CompleteBuy(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Completed: true, Flip: flip})
}

func (s *Server) handleCompleteSell(w http.ResponseWriter, r *http.Request) {
	flip, err := s.store.CompleteSell(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Completed: true, Flip: flip})
}

func (s *Server) handleDeleteBuy(w http.ResponseWriter, r *http.Request) {
	if !confirmed(w, r) {
		return
	}
	if err := s.store.DeleteBuy(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSell(w http.ResponseWriter, r *http.Request) {
	if !confirmed(w, r) {
		return
	}
	if err := s.store.DeleteSell(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Watchlist)
}

func (s *Server) handleAddWatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item string `json:"item"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.AddWatch(req.Item); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRemoveWatch(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveWatch(r.PathValue("item")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	Item      string `json:"item"`
	BuyPrice  int64  `json:"buyPrice"`
	SellPrice int64  `json:"sellPrice"`
	Limit     int64  `json:"limit"`
}

// handleAddItem records a manual price check, same path as a detected one.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := s.store.RecordObservation(r.Context(), req.Item, req.BuyPrice, req.SellPrice, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveItem(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	if !confirmed(w, r) {
		return
	}
	s.store.ClearItems()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, _ *http.Request) {
	s.store.ClearCompleted()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !confirmed(w, r) {
		return
	}
	s.store.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	export := model.ExportFile{
		Version:    model.ExportVersion,
		ExportedAt: time.Now(),
		Snapshot:   s.store.Snapshot(),
	}
	w.Header().Set("Content-Disposition", `attachment; filename="flippr-backup.json"`)
	writeJSON(w, http.StatusOK, export)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var export model.ExportFile
	if !decode(w, r, &export) {
		return
	}
	s.store.ImportSnapshot(export.Snapshot)
	writeJSON(w, http.StatusOK, map[string]bool{"imported": true})
}

// confirmed gates destructive endpoints behind an explicit query flag.
func confirmed(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "confirm=true required"})
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}
