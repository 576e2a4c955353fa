package model

import "time"

// Snapshot is the full persisted state: every collection the store owns,
// keyed by a fixed set of names in storage.
type Snapshot struct {
	BuyOrders      []BuyOrder            `json:"buyOrders"`
	SellOrders     []SellOrder           `json:"sellOrders"`
	CompletedFlips []CompletedFlip       `json:"completedFlips"`
	Watchlist      []string              `json:"watchlist"`
	Stats          Stats                 `json:"stats"`
	ItemTracking   map[string]*ItemEntry `json:"itemTracking"`
}

// ExportFile is the on-disk backup format: the snapshot plus a version tag
// and export timestamp.
type ExportFile struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"timestamp"`
	Snapshot
}

// ExportVersion tags backup files written by this build.
const ExportVersion = "1.0.0"
