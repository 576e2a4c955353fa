package model

import "time"

// BuyOrder is an open Grand Exchange buy offer being tracked.
type BuyOrder struct {
	ID           string    `json:"id"`
	Item         string    `json:"item"`
	Price        int64     `json:"price"`
	Qty          int64     `json:"qty"`
	Bought       int64     `json:"bought"`
	Total        int64     `json:"total"`
	CreatedAt    time.Time `json:"createdAt"`
	LinkedSellID string    `json:"linkedSellId,omitempty"`
	Completed    bool      `json:"completed"`
}

// SellOrder mirrors BuyOrder for the sell side of a flip.
type SellOrder struct {
	ID          string    `json:"id"`
	Item        string    `json:"item"`
	Price       int64     `json:"price"`
	Qty         int64     `json:"qty"`
	Sold        int64     `json:"sold"`
	Total       int64     `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
	LinkedBuyID string    `json:"linkedBuyId,omitempty"`
	Completed   bool      `json:"completed"`
}
