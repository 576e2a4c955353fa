package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/6inq/flippr/internal/model"
	"github.com/6inq/flippr/internal/storage"
)

// ErrNotFound is returned when an operation references an order or item
// that is not in the store.
var ErrNotFound = errors.New("not found")

// LimitResolver answers purchase-limit lookups for the tracking ledger.
type LimitResolver interface {
	Resolve(ctx context.Context, itemName string) int64
	Reset()
}

// Notifier shows a transient overlay message. Implementations are
// fire-and-forget and must not block.
type Notifier interface {
	Notify(message string, duration time.Duration)
}

// Store owns every entity collection: buy and sell orders, completed
// flips, the item tracking ledger, the watchlist, and aggregate stats.
// Every mutation runs to completion under one lock and is followed by a
// full-snapshot persistence write; persistence failures are logged and the
// operation proceeds with in-memory state.
type Store struct {
	mu sync.Mutex

	buyOrders      []model.BuyOrder
	sellOrders     []model.SellOrder
	completedFlips []model.CompletedFlip
	watchlist      []string
	stats          model.Stats
	itemTracking   map[string]*model.ItemEntry

	persister storage.Persister
	limits    LimitResolver
	notifier  Notifier
}

// New creates an empty store. limits may be nil when no resolver is wired
// (tracking then records entries without a purchase limit).
func New(persister storage.Persister, limits LimitResolver) *Store {
	return &Store{
		itemTracking: make(map[string]*model.ItemEntry),
		stats:        model.Stats{StartDate: time.Now()},
		persister:    persister,
		limits:       limits,
	}
}

// SetNotifier attaches the overlay notification surface.
func (s *Store) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Load rehydrates state from the persister. A missing snapshot leaves the
// store empty; that is not an error.
func (s *Store) Load() error {
	snap, err := s.persister.Load()
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyOrders = snap.BuyOrders
	s.sellOrders = snap.SellOrders
	s.completedFlips = snap.CompletedFlips
	s.watchlist = snap.Watchlist
	s.stats = snap.Stats
	if snap.ItemTracking != nil {
		s.itemTracking = snap.ItemTracking
	}
	if s.stats.StartDate.IsZero() {
		s.stats.StartDate = time.Now()
	}
	log.Printf("[INFO] state loaded: %d buy, %d sell, %d flips, %d tracked items",
		len(s.buyOrders), len(s.sellOrders), len(s.completedFlips), len(s.itemTracking))
	return nil
}

// Snapshot returns a deep copy of all collections.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		BuyOrders:      append([]model.BuyOrder(nil), s.buyOrders...),
		SellOrders:     append([]model.SellOrder(nil), s.sellOrders...),
		CompletedFlips: append([]model.CompletedFlip(nil), s.completedFlips...),
		Watchlist:      append([]string(nil), s.watchlist...),
		Stats:          s.stats,
		ItemTracking:   make(map[string]*model.ItemEntry, len(s.itemTracking)),
	}
	for name, entry := range s.itemTracking {
		copied := *entry
		copied.History = append([]model.PriceSnapshot(nil), entry.History...)
		snap.ItemTracking[name] = &copied
	}
	return snap
}

// ImportSnapshot merges a backup into the current state. The merge is
// additive: existing collections are not cleared first. Orders and flips
// merge by ID and tracked items by name, so re-importing the same backup
// is a no-op; imported stats replace the current block wholesale. Whether
// merge (rather than replace) is the right call is an open question
// inherited from the original tool; the behavior is kept and documented.
func (s *Store) ImportSnapshot(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buyIDs := make(map[string]bool, len(s.buyOrders))
	for _, o := range s.buyOrders {
		buyIDs[o.ID] = true
	}
	for _, o := range snap.BuyOrders {
		if !buyIDs[o.ID] {
			s.buyOrders = append(s.buyOrders, o)
		}
	}

	sellIDs := make(map[string]bool, len(s.sellOrders))
	for _, o := range s.sellOrders {
		sellIDs[o.ID] = true
	}
	for _, o := range snap.SellOrders {
		if !sellIDs[o.ID] {
			s.sellOrders = append(s.sellOrders, o)
		}
	}

	flipIDs := make(map[string]bool, len(s.completedFlips))
	for _, f := range s.completedFlips {
		flipIDs[f.ID] = true
	}
	for _, f := range snap.CompletedFlips {
		if !flipIDs[f.ID] {
			s.completedFlips = append(s.completedFlips, f)
		}
	}

	watched := make(map[string]bool, len(s.watchlist))
	for _, w := range s.watchlist {
		watched[w] = true
	}
	for _, w := range snap.Watchlist {
		if !watched[w] {
			s.watchlist = append(s.watchlist, w)
		}
	}

	for name, entry := range snap.ItemTracking {
		s.itemTracking[name] = entry
	}

	if !snap.Stats.StartDate.IsZero() || snap.Stats.TotalFlips > 0 {
		s.stats = snap.Stats
	}

	s.saveLocked()
}

// Reset clears every collection and zeroes stats, including best and worst
// flip. In-flight limit lookups are invalidated via the resolver's
// generation counter.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buyOrders = nil
	s.sellOrders = nil
	s.completedFlips = nil
	s.watchlist = nil
	s.itemTracking = make(map[string]*model.ItemEntry)
	s.stats = model.Stats{StartDate: time.Now()}

	if s.limits != nil {
		s.limits.Reset()
	}
	s.saveLocked()
	s.notifyLocked("Everything reset", 1500*time.Millisecond)
}

// ClearCompleted drops the completed-flip history. Stats are untouched:
// they describe lifetime totals, not the visible list.
func (s *Store) ClearCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedFlips = nil
	s.saveLocked()
}

// SaveNow forces a persistence write outside the mutation path.
func (s *Store) SaveNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

// saveLocked writes the full snapshot. Failures are logged and swallowed:
// persistence is best effort and never blocks a mutation.
func (s *Store) saveLocked() {
	if s.persister == nil {
		return
	}
	snap := s.snapshotLocked()
	if err := s.persister.Save(&snap); err != nil {
		log.Printf("[ERROR] save snapshot: %v", err)
	}
}

func (s *Store) notifyLocked(message string, duration time.Duration) {
	if s.notifier != nil {
		s.notifier.Notify(message, duration)
	}
}

// fmtGP renders a gp amount the way the overlay shows prices.
func fmtGP(v int64) string {
	return humanize.Comma(v) + " gp"
}
