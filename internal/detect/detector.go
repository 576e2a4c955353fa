// Package detect runs the polling side of the tool: capturing screen
// regions and reading game chat, then feeding what it finds into the store.
package detect

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/6inq/flippr/internal/host"
	"github.com/6inq/flippr/internal/model"
	"github.com/6inq/flippr/internal/parse"
)

// Screen is the capture-and-read surface the detector polls.
type Screen interface {
	WindowRect(ctx context.Context) (host.Rect, error)
	Capture(ctx context.Context, region host.Rect) (string, error)
	OCRRead(ctx context.Context, imageToken string) (string, error)
}

// Tracker receives detected price checks.
type Tracker interface {
	RecordObservation(ctx context.Context, item string, buyPrice, sellPrice, limit int64) (model.ItemEntry, error)
}

// Notifier shows a transient overlay message.
type Notifier interface {
	Notify(message string, duration time.Duration)
}

// Detector watches the price-check regions of the game window. Regions are
// tried in order and the first one yielding a readable price check wins.
// A repeat of the last detection is dropped so one on-screen panel does
// not generate an observation per poll tick.
type Detector struct {
	screen   Screen
	tracker  Tracker
	notifier Notifier
	regions  []host.Rect

	mu       sync.Mutex
	running  bool
	lastKey  string
	lastSeen time.Time
}

func NewDetector(screen Screen, tracker Tracker, regions []host.Rect) *Detector {
	return &Detector{screen: screen, tracker: tracker, regions: regions}
}

// SetNotifier attaches the overlay notification surface.
func (d *Detector) SetNotifier(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifier = n
}

// Poll runs one detection pass. If the previous pass is still in flight
// (OCR can be slow) the tick is skipped rather than queued.
func (d *Detector) Poll(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	win, err := d.screen.WindowRect(ctx)
	if err != nil {
		return fmt.Errorf("locate game window: %w", err)
	}

	for _, region := range d.regions {
		check, limit, ok := d.readRegion(ctx, region.Offset(win.X, win.Y))
		if !ok {
			continue
		}

		key := fmt.Sprintf("%s-%d-%d-%d", check.Item, check.BuyPrice, check.SellPrice, limit)
		d.mu.Lock()
		dup := key == d.lastKey
		d.lastKey = key
		d.lastSeen = time.Now()
		d.mu.Unlock()
		if dup {
			return nil
		}

		entry, err := d.tracker.RecordObservation(ctx, check.Item, check.BuyPrice, check.SellPrice, limit)
		if err != nil {
			return fmt.Errorf("record %s: %w", check.Item, err)
		}
		d.notify(fmt.Sprintf("Tracked %s: %s/item", check.Item, fmtGP(entry.ProfitPerItem)), 2*time.Second)
		return nil
	}
	return nil
}

// readRegion captures and OCRs one region, then tries the extraction
// heuristics. The purchase limit comes from the same text when present,
// zero otherwise (the store resolves it).
func (d *Detector) readRegion(ctx context.Context, region host.Rect) (parse.PriceCheck, int64, bool) {
	token, err := d.screen.Capture(ctx, region)
	if err != nil {
		log.Printf("[WARN] capture region %+v: %v", region, err)
		return parse.PriceCheck{}, 0, false
	}
	text, err := d.screen.OCRRead(ctx, token)
	if err != nil {
		log.Printf("[WARN] ocr region %+v: %v", region, err)
		return parse.PriceCheck{}, 0, false
	}

	check, ok := parse.ExtractPriceCheck(text)
	if !ok {
		return parse.PriceCheck{}, 0, false
	}
	limit, _ := parse.ExtractBuyLimit(text)
	return check, limit, true
}

func (d *Detector) notify(message string, duration time.Duration) {
	d.mu.Lock()
	n := d.notifier
	d.mu.Unlock()
	if n != nil {
		n.Notify(message, duration)
	}
}
