package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/6inq/flippr/internal/model"
)

// RecordObservation folds a price check into the tracking ledger. The
// previous reading, if any, is pushed onto the entry's history before being
// overwritten; history keeps the most recent entries up to the cap, oldest
// first out. A zero limit means unknown and triggers a resolver lookup.
func (s *Store) RecordObservation(ctx context.Context, item string, buyPrice, sellPrice, limit int64) (model.ItemEntry, error) {
	if item == "" || buyPrice < 1 || sellPrice < 1 {
		return model.ItemEntry{}, fmt.Errorf("invalid observation for %q: buy %d sell %d", item, buyPrice, sellPrice)
	}

	if limit <= 0 && s.limits != nil {
		// resolver call happens outside the store lock, it may hit the network
		limit = s.limits.Resolve(ctx, item)
	}

	sellNet := sellPrice - model.Tax(sellPrice)
	profit := sellNet - buyPrice
	var margin float64
	if buyPrice > 0 {
		margin = float64(profit) / float64(buyPrice) * 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.itemTracking[item]
	if !ok {
		entry = &model.ItemEntry{}
		s.itemTracking[item] = entry
	} else {
		entry.History = append(entry.History, model.PriceSnapshot{
			BuyPrice:      entry.BuyPrice,
			SellPrice:     entry.SellPrice,
			ProfitPerItem: entry.ProfitPerItem,
			Timestamp:     entry.LastSeen,
		})
		if len(entry.History) > model.HistoryCap {
			entry.History = entry.History[len(entry.History)-model.HistoryCap:]
		}
	}

	entry.BuyPrice = buyPrice
	entry.SellPrice = sellPrice
	entry.ProfitPerItem = profit
	entry.Margin = margin
	if limit > 0 {
		// an observation without a limit never erases a known one
		entry.GELimit = limit
	}
	entry.TotalProfitAtLimit = profit * entry.GELimit
	entry.LastSeen = now
	entry.TotalChecked++

	s.saveLocked()
	log.Printf("[INFO] tracked %s: buy %s, sell %s, %s/item", item, fmtGP(buyPrice), fmtGP(sellPrice), fmtGP(profit))

	out := *entry
	out.History = append([]model.PriceSnapshot(nil), entry.History...)
	return out, nil
}

// RemoveItem drops one item from the tracking ledger.
func (s *Store) RemoveItem(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.itemTracking[name]; !ok {
		return fmt.Errorf("remove item %q: %w", name, ErrNotFound)
	}
	delete(s.itemTracking, name)
	s.saveLocked()
	return nil
}

// ClearItems empties the tracking ledger.
func (s *Store) ClearItems() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemTracking = make(map[string]*model.ItemEntry)
	s.saveLocked()
}
