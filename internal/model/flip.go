package model

import "time"

// Tax returns the Grand Exchange sales tax withheld on a gross sale amount:
// 1% of revenue, rounded down. Integer division keeps the floor exact
// (999 gp gross -> 9 gp tax, never 10).
func Tax(grossRevenue int64) int64 {
	if grossRevenue <= 0 {
		return 0
	}
	return grossRevenue / 100
}

// CompletedFlip is the immutable record of a finished buy+sell round trip.
// Created once by the flip finalizer and never mutated afterwards.
type CompletedFlip struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	BuyPrice  int64     `json:"buyPrice"`
	SellPrice int64     `json:"sellPrice"`
	Qty       int64     `json:"qty"`
	BuyTotal  int64     `json:"buyTotal"`
	SellTotal int64     `json:"sellTotal"`
	Tax       int64     `json:"tax"`
	Profit    int64     `json:"profit"`
	Margin    float64   `json:"margin"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
}

// Stats accumulates lifetime flip results. Mutated only by the flip
// finalizer (monotonic) and the full reset.
type Stats struct {
	TotalProfit     int64     `json:"totalProfit"`
	TotalInvested   int64     `json:"totalInvested"`
	TotalRevenue    int64     `json:"totalRevenue"`
	TotalFlips      int64     `json:"totalFlips"`
	ProfitableFlips int64     `json:"profitableFlips"`
	BestFlip        int64     `json:"bestFlip"`
	WorstFlip       int64     `json:"worstFlip"`
	StartDate       time.Time `json:"startDate"`
}
