// Package stats derives dashboard numbers from a state snapshot. Nothing
// here mutates state; the store owns the lifetime counters and this package
// turns them into ratios and rankings.
package stats

import (
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/6inq/flippr/internal/model"
)

// TopItemCount bounds the opportunity ranking.
const TopItemCount = 10

// ItemRank is one row of the tracked-item opportunity ranking.
type ItemRank struct {
	Name               string  `json:"name"`
	ProfitPerItem      int64   `json:"profitPerItem"`
	Margin             float64 `json:"margin"`
	GELimit            int64   `json:"geLimit"`
	TotalProfitAtLimit int64   `json:"totalProfitAtLimit"`
}

// Summary is the computed dashboard block.
type Summary struct {
	model.Stats

	ActiveBuyOrders  int     `json:"activeBuyOrders"`
	ActiveSellOrders int     `json:"activeSellOrders"`
	AvgProfit        int64   `json:"avgProfit"`
	SuccessRate      float64 `json:"successRate"`
	ROI              float64 `json:"roi"`
	ProfitMargin     float64 `json:"profitMargin"`

	TotalProfitDisplay string `json:"totalProfitDisplay"`

	TopItems    []ItemRank            `json:"topItems"`
	RecentFlips []model.CompletedFlip `json:"recentFlips"`
}

// Compute builds the summary from a snapshot.
func Compute(snap model.Snapshot) Summary {
	sum := Summary{
		Stats:            snap.Stats,
		ActiveBuyOrders:  len(snap.BuyOrders),
		ActiveSellOrders: len(snap.SellOrders),
	}

	if snap.Stats.TotalFlips > 0 {
		sum.AvgProfit = snap.Stats.TotalProfit / snap.Stats.TotalFlips
		sum.SuccessRate = float64(snap.Stats.ProfitableFlips) / float64(snap.Stats.TotalFlips) * 100
	}
	if snap.Stats.TotalInvested > 0 {
		sum.ROI = float64(snap.Stats.TotalProfit) / float64(snap.Stats.TotalInvested) * 100
	}
	if snap.Stats.TotalRevenue > 0 {
		sum.ProfitMargin = float64(snap.Stats.TotalProfit) / float64(snap.Stats.TotalRevenue) * 100
	}
	sum.TotalProfitDisplay = humanize.Comma(snap.Stats.TotalProfit) + " gp"

	sum.TopItems = topItems(snap.ItemTracking)
	sum.RecentFlips = recentFlips(snap.CompletedFlips, TopItemCount)
	return sum
}

// topItems ranks tracked items by per-item profit, profitable ones only.
func topItems(tracking map[string]*model.ItemEntry) []ItemRank {
	ranks := make([]ItemRank, 0, len(tracking))
	for name, entry := range tracking {
		if entry == nil || entry.ProfitPerItem <= 0 {
			continue
		}
		ranks = append(ranks, ItemRank{
			Name:               name,
			ProfitPerItem:      entry.ProfitPerItem,
			Margin:             entry.Margin,
			GELimit:            entry.GELimit,
			TotalProfitAtLimit: entry.TotalProfitAtLimit,
		})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].ProfitPerItem != ranks[j].ProfitPerItem {
			return ranks[i].ProfitPerItem > ranks[j].ProfitPerItem
		}
		return ranks[i].Name < ranks[j].Name
	})
	if len(ranks) > TopItemCount {
		ranks = ranks[:TopItemCount]
	}
	return ranks
}

// recentFlips returns the newest n flips, newest first.
func recentFlips(flips []model.CompletedFlip, n int) []model.CompletedFlip {
	out := append([]model.CompletedFlip(nil), flips...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
