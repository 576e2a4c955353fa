package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Side distinguishes the two halves of a flip.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderUpdate is a structured Grand Exchange progress message lifted from
// one chat line. Simple updates come from the terse confirmation messages
// that only report a quantity, which may be an increment on top of an
// earlier partial fill.
type OrderUpdate struct {
	Side     Side
	Item     string
	Qty      int64
	Filled   int64
	Complete bool
	Simple   bool
}

var (
	buyFinished  = regexp.MustCompile(`(?i)your offer to buy (\d+(?:,\d{3})*)\s+of\s+(.+?)\s+has finished buying`)
	sellFinished = regexp.MustCompile(`(?i)your offer to sell (\d+(?:,\d{3})*)\s+of\s+(.+?)\s+has finished selling`)
	buyPartial   = regexp.MustCompile(`(?i)your offer to buy (\d+(?:,\d{3})*)\s+of\s+(.+?)\s+has partially completed[.:]?\s*(\d+(?:,\d{3})*)\s+have been bought`)
	sellPartial  = regexp.MustCompile(`(?i)your offer to sell (\d+(?:,\d{3})*)\s+of\s+(.+?)\s+has partially completed[.:]?\s*(\d+(?:,\d{3})*)\s+have been sold`)
	boughtSimple = regexp.MustCompile(`(?i)you have successfully bought (\d+(?:,\d{3})*)\s+(.+?)\.`)
	soldSimple   = regexp.MustCompile(`(?i)you have successfully sold (\d+(?:,\d{3})*)\s+(.+?)\.`)
)

// ParseChatLine recognizes the Grand Exchange progress messages. Patterns
// are tried from most to least specific; the first hit wins.
func ParseChatLine(line string) (OrderUpdate, bool) {
	if m := buyFinished.FindStringSubmatch(line); m != nil {
		qty := chatQty(m[1])
		return OrderUpdate{Side: SideBuy, Item: chatItem(m[2]), Qty: qty, Filled: qty, Complete: true}, true
	}
	if m := sellFinished.FindStringSubmatch(line); m != nil {
		qty := chatQty(m[1])
		return OrderUpdate{Side: SideSell, Item: chatItem(m[2]), Qty: qty, Filled: qty, Complete: true}, true
	}
	if m := buyPartial.FindStringSubmatch(line); m != nil {
		return OrderUpdate{Side: SideBuy, Item: chatItem(m[2]), Qty: chatQty(m[1]), Filled: chatQty(m[3])}, true
	}
	if m := sellPartial.FindStringSubmatch(line); m != nil {
		return OrderUpdate{Side: SideSell, Item: chatItem(m[2]), Qty: chatQty(m[1]), Filled: chatQty(m[3])}, true
	}
	if m := boughtSimple.FindStringSubmatch(line); m != nil {
		qty := chatQty(m[1])
		return OrderUpdate{Side: SideBuy, Item: chatItem(m[2]), Qty: qty, Filled: qty, Simple: true}, true
	}
	if m := soldSimple.FindStringSubmatch(line); m != nil {
		qty := chatQty(m[1])
		return OrderUpdate{Side: SideSell, Item: chatItem(m[2]), Qty: qty, Filled: qty, Simple: true}, true
	}
	return OrderUpdate{}, false
}

func chatQty(s string) int64 {
	v, _ := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	return v
}

func chatItem(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
}
