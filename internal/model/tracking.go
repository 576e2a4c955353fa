package model

import "time"

// HistoryCap bounds the rolling price history kept per tracked item.
const HistoryCap = 50

// PriceSnapshot is one prior observation kept in an item's history.
type PriceSnapshot struct {
	BuyPrice      int64     `json:"buyPrice"`
	SellPrice     int64     `json:"sellPrice"`
	ProfitPerItem int64     `json:"profitPerItem"`
	Timestamp     time.Time `json:"timestamp"`
}

// ItemEntry tracks the latest observed prices for one item, keyed by its
// display name as observed. GELimit of 0 means the limit is still unknown.
type ItemEntry struct {
	BuyPrice           int64           `json:"buyPrice"`
	SellPrice          int64           `json:"sellPrice"`
	ProfitPerItem      int64           `json:"profitPerItem"`
	Margin             float64         `json:"margin"`
	GELimit            int64           `json:"geLimit,omitempty"`
	TotalProfitAtLimit int64           `json:"totalProfitAtLimit,omitempty"`
	LastSeen           time.Time       `json:"lastSeen"`
	History            []PriceSnapshot `json:"history"`
	TotalChecked       int64           `json:"totalChecked"`
}
