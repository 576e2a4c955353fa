package detect

import (
	"context"
	"fmt"
	"testing"

	"github.com/6inq/flippr/internal/host"
	"github.com/6inq/flippr/internal/model"
)

type fakeScreen struct {
	win      host.Rect
	winErr   error
	texts    []string // one OCR result per region, in order
	captured []host.Rect
}

func (f *fakeScreen) WindowRect(_ context.Context) (host.Rect, error) {
	return f.win, f.winErr
}

func (f *fakeScreen) Capture(_ context.Context, region host.Rect) (string, error) {
	f.captured = append(f.captured, region)
	return fmt.Sprintf("tok-%d", len(f.captured)-1), nil
}

func (f *fakeScreen) OCRRead(_ context.Context, token string) (string, error) {
	var i int
	fmt.Sscanf(token, "tok-%d", &i)
	if i >= len(f.texts) {
		return "", nil
	}
	return f.texts[i], nil
}

type fakeTracker struct {
	items  []string
	buys   []int64
	sells  []int64
	limits []int64
}

func (f *fakeTracker) RecordObservation(_ context.Context, item string, buy, sell, limit int64) (model.ItemEntry, error) {
	f.items = append(f.items, item)
	f.buys = append(f.buys, buy)
	f.sells = append(f.sells, sell)
	f.limits = append(f.limits, limit)
	return model.ItemEntry{BuyPrice: buy, SellPrice: sell, ProfitPerItem: sell - model.Tax(sell) - buy}, nil
}

const priceCheckText = "Yew logs\nBuy: 450 gp\nSell: 470 gp"

func testRegions() []host.Rect {
	return []host.Rect{
		{X: 400, Y: 150, Width: 400, Height: 300},
		{X: 380, Y: 200, Width: 420, Height: 250},
	}
}

func TestPoll_RecordsDetectedPriceCheck(t *testing.T) {
	screen := &fakeScreen{win: host.Rect{X: 100, Y: 50}, texts: []string{priceCheckText}}
	tracker := &fakeTracker{}
	d := NewDetector(screen, tracker, testRegions())

	if err := d.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(tracker.items) != 1 || tracker.items[0] != "Yew logs" {
		t.Fatalf("tracked items = %v", tracker.items)
	}
	if tracker.buys[0] != 450 || tracker.sells[0] != 470 {
		t.Errorf("prices = %d/%d, want 450/470", tracker.buys[0], tracker.sells[0])
	}
	if tracker.limits[0] != 0 {
		t.Errorf("limit = %d, want 0 when absent from text", tracker.limits[0])
	}
}

func TestPoll_RegionsOffsetByWindow(t *testing.T) {
	screen := &fakeScreen{win: host.Rect{X: 100, Y: 50}, texts: []string{priceCheckText}}
	d := NewDetector(screen, &fakeTracker{}, testRegions())

	d.Poll(context.Background())

	if len(screen.captured) == 0 {
		t.Fatal("nothing captured")
	}
	got := screen.captured[0]
	if got.X != 500 || got.Y != 200 {
		t.Errorf("captured region at (%d,%d), want window-relative (500,200)", got.X, got.Y)
	}
}

func TestPoll_FirstMatchingRegionWins(t *testing.T) {
	screen := &fakeScreen{texts: []string{"no prices here", priceCheckText}}
	tracker := &fakeTracker{}
	d := NewDetector(screen, tracker, testRegions())

	if err := d.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(screen.captured) != 2 {
		t.Errorf("captured %d regions, want both tried", len(screen.captured))
	}
	if len(tracker.items) != 1 {
		t.Errorf("observations = %d, want 1", len(tracker.items))
	}
}

func TestPoll_DuplicateDetectionSkipped(t *testing.T) {
	screen := &fakeScreen{texts: []string{priceCheckText}}
	tracker := &fakeTracker{}
	d := NewDetector(screen, tracker, testRegions())

	d.Poll(context.Background())
	d.Poll(context.Background())

	if len(tracker.items) != 1 {
		t.Errorf("observations = %d, want 1 after identical second poll", len(tracker.items))
	}
}

func TestPoll_ChangedPricesRecordedAgain(t *testing.T) {
	screen := &fakeScreen{texts: []string{priceCheckText}}
	tracker := &fakeTracker{}
	d := NewDetector(screen, tracker, testRegions())

	d.Poll(context.Background())
	screen.texts[0] = "Yew logs\nBuy: 455 gp\nSell: 475 gp"
	screen.captured = nil
	d.Poll(context.Background())

	if len(tracker.items) != 2 {
		t.Fatalf("observations = %d, want 2", len(tracker.items))
	}
	if tracker.buys[1] != 455 {
		t.Errorf("second buy price = %d, want 455", tracker.buys[1])
	}
}

func TestPoll_BuyLimitPassedThrough(t *testing.T) {
	screen := &fakeScreen{texts: []string{"Yew logs\nBuy: 450 gp\nSell: 470 gp\nBuy limit: 25000"}}
	tracker := &fakeTracker{}
	d := NewDetector(screen, tracker, testRegions())

	d.Poll(context.Background())

	if len(tracker.limits) != 1 || tracker.limits[0] != 25000 {
		t.Errorf("limits = %v, want [25000]", tracker.limits)
	}
}

func TestPoll_WindowErrorPropagates(t *testing.T) {
	screen := &fakeScreen{winErr: fmt.Errorf("host unreachable")}
	d := NewDetector(screen, &fakeTracker{}, testRegions())

	if err := d.Poll(context.Background()); err == nil {
		t.Error("expected error when the game window cannot be located")
	}
}
