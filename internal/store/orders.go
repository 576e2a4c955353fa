package store

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/6inq/flippr/internal/model"
)

// AddBuyOrder records a new buy order. Item must be non-empty and price
// positive; a non-positive quantity defaults to 1.
func (s *Store) AddBuyOrder(item string, price, qty int64) (model.BuyOrder, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return model.BuyOrder{}, fmt.Errorf("item name is required")
	}
	if price < 1 {
		return model.BuyOrder{}, fmt.Errorf("price must be at least 1 gp")
	}
	if qty < 1 {
		qty = 1
	}

	order := model.BuyOrder{
		ID:        uuid.NewString(),
		Item:      item,
		Price:     price,
		Qty:       qty,
		Total:     price * qty,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyOrders = append(s.buyOrders, order)
	s.saveLocked()
	log.Printf("[INFO] buy order added: %s x%d @ %s", order.Item, order.Qty, fmtGP(order.Price))
	return order, nil
}

// AddSellOrder records a new sell order with the same validation rules as
// AddBuyOrder.
func (s *Store) AddSellOrder(item string, price, qty int64) (model.SellOrder, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return model.SellOrder{}, fmt.Errorf("item name is required")
	}
	if price < 1 {
		return model.SellOrder{}, fmt.Errorf("price must be at least 1 gp")
	}
	if qty < 1 {
		qty = 1
	}

	order := model.SellOrder{
		ID:        uuid.NewString(),
		Item:      item,
		Price:     price,
		Qty:       qty,
		Total:     price * qty,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellOrders = append(s.sellOrders, order)
	s.saveLocked()
	log.Printf("[INFO] sell order added: %s x%d @ %s", order.Item, order.Qty, fmtGP(order.Price))
	return order, nil
}

// Link pairs a buy order with a sell order into a flip in progress. Links
// are symmetric and exclusive: relinking either side clears the stale
// pointer on its previous partner first.
func (s *Store) Link(buyID, sellID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bi := s.findBuyLocked(buyID)
	si := s.findSellLocked(sellID)
	if bi < 0 || si < 0 {
		return fmt.Errorf("link %s to %s: %w", buyID, sellID, ErrNotFound)
	}

	if prev := s.buyOrders[bi].LinkedSellID; prev != "" && prev != sellID {
		if pi := s.findSellLocked(prev); pi >= 0 {
			s.sellOrders[pi].LinkedBuyID = ""
		}
	}
	if prev := s.sellOrders[si].LinkedBuyID; prev != "" && prev != buyID {
		if pi := s.findBuyLocked(prev); pi >= 0 {
			s.buyOrders[pi].LinkedSellID = ""
		}
	}

	s.buyOrders[bi].LinkedSellID = sellID
	s.sellOrders[si].LinkedBuyID = buyID
	s.saveLocked()
	s.notifyLocked("Orders linked!", 1500*time.Millisecond)
	return nil
}

// CompleteBuy marks a buy order filled. A zero fill count jumps to the full
// quantity. If the linked sell order is already complete the pair is
// finalized into a flip, which is returned.
func (s *Store) CompleteBuy(id string) (*model.CompletedFlip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bi := s.findBuyLocked(id)
	if bi < 0 {
		return nil, fmt.Errorf("complete buy %s: %w", id, ErrNotFound)
	}
	buy := &s.buyOrders[bi]
	buy.Completed = true
	if buy.Bought == 0 {
		buy.Bought = buy.Qty
	}

	var flip *model.CompletedFlip
	if buy.LinkedSellID != "" {
		if si := s.findSellLocked(buy.LinkedSellID); si >= 0 && s.sellOrders[si].Completed {
			flip = s.finalizeLocked(bi, si)
		}
	}
	s.saveLocked()
	return flip, nil
}

// CompleteSell marks a sell order filled, finalizing the flip when the
// linked buy order is already complete.
func (s *Store) CompleteSell(id string) (*model.CompletedFlip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	si := s.findSellLocked(id)
	if si < 0 {
		return nil, fmt.Errorf("complete sell %s: %w", id, ErrNotFound)
	}
	sell := &s.sellOrders[si]
	sell.Completed = true
	if sell.Sold == 0 {
		sell.Sold = sell.Qty
	}

	var flip *model.CompletedFlip
	if sell.LinkedBuyID != "" {
		if bi := s.findBuyLocked(sell.LinkedBuyID); bi >= 0 && s.buyOrders[bi].Completed {
			flip = s.finalizeLocked(bi, si)
		}
	}
	s.saveLocked()
	return flip, nil
}

// DeleteBuy removes a buy order and clears the link on its partner.
// Confirmation is the caller's concern.
func (s *Store) DeleteBuy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bi := s.findBuyLocked(id)
	if bi < 0 {
		return fmt.Errorf("delete buy %s: %w", id, ErrNotFound)
	}
	if linked := s.buyOrders[bi].LinkedSellID; linked != "" {
		if si := s.findSellLocked(linked); si >= 0 {
			s.sellOrders[si].LinkedBuyID = ""
		}
	}
	s.buyOrders = append(s.buyOrders[:bi], s.buyOrders[bi+1:]...)
	s.saveLocked()
	return nil
}

// DeleteSell removes a sell order and clears the link on its partner.
func (s *Store) DeleteSell(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	si := s.findSellLocked(id)
	if si < 0 {
		return fmt.Errorf("delete sell %s: %w", id, ErrNotFound)
	}
	if linked := s.sellOrders[si].LinkedBuyID; linked != "" {
		if bi := s.findBuyLocked(linked); bi >= 0 {
			s.buyOrders[bi].LinkedSellID = ""
		}
	}
	s.sellOrders = append(s.sellOrders[:si], s.sellOrders[si+1:]...)
	s.saveLocked()
	return nil
}

// UpdateBuyOrder applies a chat-reported fill to the first matching
// incomplete buy order. Matching tries an exact case-insensitive name
// first, then a substring in either direction; the first match wins.
//
// For "simple" messages (Bought 50x Item) the quantity accumulates onto
// the existing fill, capped at the order quantity. Structured messages
// carry an absolute filled count. A fill reaching the order quantity, or
// an explicit finished message, completes the order.
func (s *Store) UpdateBuyOrder(item string, totalQty, filledQty int64, complete, simple bool) (*model.CompletedFlip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bi := s.matchBuyLocked(item)
	if bi < 0 {
		return nil, false
	}
	buy := &s.buyOrders[bi]

	if simple {
		buy.Bought = min64(buy.Bought+filledQty, buy.Qty)
	} else {
		buy.Bought = min64(filledQty, buy.Qty)
	}
	if complete || buy.Bought >= buy.Qty {
		buy.Completed = true
		buy.Bought = buy.Qty
	}

	var flip *model.CompletedFlip
	if buy.Completed && buy.LinkedSellID != "" {
		if si := s.findSellLocked(buy.LinkedSellID); si >= 0 && s.sellOrders[si].Completed {
			flip = s.finalizeLocked(bi, si)
		}
	}
	s.saveLocked()

	if flip != nil {
		s.notifyLocked(fmt.Sprintf("Flip complete: %s %s profit", flip.Item, fmtGP(flip.Profit)), 3*time.Second)
	} else if s.buyOrders[bi].Completed {
		s.notifyLocked(fmt.Sprintf("Buy complete: %s", item), 2*time.Second)
	}
	return flip, true
}

// UpdateSellOrder mirrors UpdateBuyOrder for the sell side.
func (s *Store) UpdateSellOrder(item string, totalQty, filledQty int64, complete, simple bool) (*model.CompletedFlip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	si := s.matchSellLocked(item)
	if si < 0 {
		return nil, false
	}
	sell := &s.sellOrders[si]

	if simple {
		sell.Sold = min64(sell.Sold+filledQty, sell.Qty)
	} else {
		sell.Sold = min64(filledQty, sell.Qty)
	}
	if complete || sell.Sold >= sell.Qty {
		sell.Completed = true
		sell.Sold = sell.Qty
	}

	var flip *model.CompletedFlip
	if sell.Completed && sell.LinkedBuyID != "" {
		if bi := s.findBuyLocked(sell.LinkedBuyID); bi >= 0 && s.buyOrders[bi].Completed {
			flip = s.finalizeLocked(bi, si)
		}
	}
	s.saveLocked()

	if flip != nil {
		s.notifyLocked(fmt.Sprintf("Flip complete: %s %s profit", flip.Item, fmtGP(flip.Profit)), 3*time.Second)
	} else if si < len(s.sellOrders) && s.sellOrders[si].Completed {
		s.notifyLocked(fmt.Sprintf("Sell complete: %s", item), 2*time.Second)
	}
	return flip, true
}

// finalizeLocked turns a completed buy/sell pair into a flip. The flip
// quantity is the smaller of the two fill counts; revenue is taxed at 1%
// rounded down. SellTotal records the gross sale amount, with the tax held
// in its own field; profit and stats use the net. Both orders are removed
// and lifetime stats updated.
func (s *Store) finalizeLocked(bi, si int) *model.CompletedFlip {
	buy := s.buyOrders[bi]
	sell := s.sellOrders[si]

	qty := min64(buy.Bought, sell.Sold)
	if qty <= 0 {
		qty = min64(buy.Qty, sell.Qty)
	}

	buyTotal := buy.Price * qty
	sellGross := sell.Price * qty
	tax := model.Tax(sellGross)
	sellNet := sellGross - tax
	profit := sellNet - buyTotal

	var margin float64
	if buyTotal > 0 {
		margin = float64(profit) / float64(buyTotal) * 100
	}

	now := time.Now()
	flip := model.CompletedFlip{
		ID:        uuid.NewString(),
		Item:      buy.Item,
		BuyPrice:  buy.Price,
		SellPrice: sell.Price,
		Qty:       qty,
		BuyTotal:  buyTotal,
		SellTotal: sellGross,
		Tax:       tax,
		Profit:    profit,
		Margin:    margin,
		Timestamp: now,
		Date:      now.Format("2006-01-02"),
	}
	s.completedFlips = append(s.completedFlips, flip)

	s.stats.TotalProfit += profit
	s.stats.TotalInvested += buyTotal
	s.stats.TotalRevenue += sellNet
	s.stats.TotalFlips++
	if profit > 0 {
		s.stats.ProfitableFlips++
	}
	if profit > s.stats.BestFlip {
		s.stats.BestFlip = profit
	}
	if profit < s.stats.WorstFlip {
		s.stats.WorstFlip = profit
	}

	s.buyOrders = append(s.buyOrders[:bi], s.buyOrders[bi+1:]...)
	// removing the buy first shifts sell indices only when they share a slice,
	// which they never do
	s.sellOrders = append(s.sellOrders[:si], s.sellOrders[si+1:]...)

	log.Printf("[INFO] flip finalized: %s x%d, profit %s (tax %s)",
		flip.Item, flip.Qty, fmtGP(flip.Profit), fmtGP(flip.Tax))
	return &flip
}

func (s *Store) findBuyLocked(id string) int {
	for i := range s.buyOrders {
		if s.buyOrders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findSellLocked(id string) int {
	for i := range s.sellOrders {
		if s.sellOrders[i].ID == id {
			return i
		}
	}
	return -1
}

// matchBuyLocked finds the first incomplete buy order whose item name
// matches exactly (case-insensitive), then falls back to a substring match
// in either direction.
func (s *Store) matchBuyLocked(item string) int {
	needle := strings.ToLower(strings.TrimSpace(item))
	for i := range s.buyOrders {
		if !s.buyOrders[i].Completed && strings.ToLower(s.buyOrders[i].Item) == needle {
			return i
		}
	}
	for i := range s.buyOrders {
		if s.buyOrders[i].Completed {
			continue
		}
		have := strings.ToLower(s.buyOrders[i].Item)
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			return i
		}
	}
	return -1
}

func (s *Store) matchSellLocked(item string) int {
	needle := strings.ToLower(strings.TrimSpace(item))
	for i := range s.sellOrders {
		if !s.sellOrders[i].Completed && strings.ToLower(s.sellOrders[i].Item) == needle {
			return i
		}
	}
	for i := range s.sellOrders {
		if s.sellOrders[i].Completed {
			continue
		}
		have := strings.ToLower(s.sellOrders[i].Item)
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			return i
		}
	}
	return -1
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
