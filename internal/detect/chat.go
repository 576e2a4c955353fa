package detect

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/6inq/flippr/internal/host"
	"github.com/6inq/flippr/internal/model"
	"github.com/6inq/flippr/internal/parse"
)

// Chat reads the game chat box.
type Chat interface {
	ReadChat(ctx context.Context) (host.ChatResult, error)
}

// OrderUpdater receives parsed exchange messages.
type OrderUpdater interface {
	UpdateBuyOrder(item string, totalQty, filledQty int64, complete, simple bool) (*model.CompletedFlip, bool)
	UpdateSellOrder(item string, totalQty, filledQty int64, complete, simple bool) (*model.CompletedFlip, bool)
}

// ChatWatcher polls the chat box for Grand Exchange messages and routes
// them to the order store. Only the newest line is considered; a line equal
// to the previous poll's is skipped, so a message sitting on screen is
// applied once.
type ChatWatcher struct {
	chat   Chat
	orders OrderUpdater

	mu       sync.Mutex
	lastLine string
}

func NewChatWatcher(chat Chat, orders OrderUpdater) *ChatWatcher {
	return &ChatWatcher{chat: chat, orders: orders}
}

// Poll reads the chat box once and applies at most one update.
func (w *ChatWatcher) Poll(ctx context.Context) error {
	result, err := w.chat.ReadChat(ctx)
	if err != nil {
		return fmt.Errorf("read chat: %w", err)
	}
	if !result.Success {
		return nil
	}

	line := newestLine(result)
	if line == "" {
		return nil
	}

	w.mu.Lock()
	if line == w.lastLine {
		w.mu.Unlock()
		return nil
	}
	w.lastLine = line
	w.mu.Unlock()

	update, ok := parse.ParseChatLine(line)
	if !ok {
		return nil
	}

	if update.Side == parse.SideBuy {
		w.orders.UpdateBuyOrder(update.Item, update.Qty, update.Filled, update.Complete, update.Simple)
	} else {
		w.orders.UpdateSellOrder(update.Item, update.Qty, update.Filled, update.Complete, update.Simple)
	}
	return nil
}

// newestLine picks the last non-empty chat line, falling back to the raw
// text buffer when the host did not split lines.
func newestLine(result host.ChatResult) string {
	for i := len(result.Lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(result.Lines[i].Text); s != "" {
			return s
		}
	}
	raw := strings.Split(result.Text, "\n")
	for i := len(raw) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(raw[i]); s != "" {
			return s
		}
	}
	return ""
}

func fmtGP(v int64) string {
	return humanize.Comma(v) + " gp"
}
