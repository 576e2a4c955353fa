package storage

import "github.com/6inq/flippr/internal/model"

// Collection names are the fixed keys the snapshot is stored under.
const (
	KeyBuyOrders      = "buyOrders"
	KeySellOrders     = "sellOrders"
	KeyCompletedFlips = "completedFlips"
	KeyWatchlist      = "watchlist"
	KeyStats          = "stats"
	KeyItemTracking   = "itemTracking"
)

// Persister loads and saves the full state snapshot. Save is a full
// overwrite of every collection; Load returns (nil, nil) when no snapshot
// has ever been written.
type Persister interface {
	Load() (*model.Snapshot, error)
	Save(snap *model.Snapshot) error
	Close() error
}
