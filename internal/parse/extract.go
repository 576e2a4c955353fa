package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// PriceCheck is the structured result of reading a price-check screen:
// one item with its guide buy and sell prices.
type PriceCheck struct {
	Item      string
	BuyPrice  int64
	SellPrice int64
}

// Extractor attempts to pull a PriceCheck out of a raw OCR text block.
type Extractor func(text string) (PriceCheck, bool)

// Extractors are tried in order; the first success wins. Each heuristic is
// independent so a layout one of them cannot read may still be handled by
// the next.
var Extractors = []Extractor{
	ExtractLabeled,
	ExtractPriceList,
	ExtractLineRoles,
}

// ExtractPriceCheck runs the heuristic chain over an OCR text block.
func ExtractPriceCheck(text string) (PriceCheck, bool) {
	for _, ex := range Extractors {
		if pc, ok := ex(text); ok {
			return pc, true
		}
	}
	return PriceCheck{}, false
}

var (
	labeledBuy  = regexp.MustCompile(`(?i)(?:buy|purchase|guide price|market price)[:\s]*([\d][\d,\s.]*(?:[kmb])?)\s*(?:gp|coins?|each)?`)
	labeledSell = regexp.MustCompile(`(?i)(?:sell|offer|guide price|market price)[:\s]*([\d][\d,\s.]*(?:[kmb])?)\s*(?:gp|coins?|each)?`)

	priceOnlyLine = regexp.MustCompile(`(?i)^[\d,\s.]+(?:[kmb])?\s*(?:gp|coins?)?$`)
	labelOnlyLine = regexp.MustCompile(`(?i)^(buy|sell|price|gp|coins?)$`)
	allDigits     = regexp.MustCompile(`^\d+$`)

	nameJunk   = regexp.MustCompile(`[^\w\s'-]`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// cleanItemName normalizes an OCR'd item name to word characters,
// apostrophes, and hyphens with single spaces.
func cleanItemName(s string) string {
	s = nameJunk.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimSpace(l))
		}
	}
	return lines
}

// ExtractLabeled matches explicitly labelled buy/sell prices and looks for
// an item-name candidate among the first five lines: anything that is not
// purely a price or a bare label, between 3 and 59 characters.
func ExtractLabeled(text string) (PriceCheck, bool) {
	buyMatch := labeledBuy.FindStringSubmatch(text)
	sellMatch := labeledSell.FindStringSubmatch(text)

	var itemName string
	lines := nonEmptyLines(text)
	for i := 0; i < len(lines) && i < 5; i++ {
		line := lines[i]
		if priceOnlyLine.MatchString(line) || labelOnlyLine.MatchString(line) {
			continue
		}
		if len(line) <= 2 || len(line) >= 60 {
			continue
		}
		name := cleanItemName(line)
		if len(name) > 2 && !allDigits.MatchString(name) {
			itemName = name
			break
		}
	}

	if buyMatch == nil || sellMatch == nil || itemName == "" {
		return PriceCheck{}, false
	}
	buyPrice, okB := ParsePrice(buyMatch[1])
	sellPrice, okS := ParsePrice(sellMatch[1])
	if !okB || !okS {
		return PriceCheck{}, false
	}
	return PriceCheck{Item: itemName, BuyPrice: buyPrice, SellPrice: sellPrice}, true
}

var gpPrice = regexp.MustCompile(`(?i)([\d][\d,\s.]*(?:[kmb])?)\s*gp`)

// ExtractPriceList scans for "<number> gp" occurrences. With two or more,
// the first is taken as the buy price and the second as the sell price; the
// item name comes from the text preceding the first price, scanning
// backward through up to three lines.
func ExtractPriceList(text string) (PriceCheck, bool) {
	matches := gpPrice.FindAllStringSubmatchIndex(text, 4)
	var prices []int64
	firstIdx := -1
	for _, m := range matches {
		if p, ok := ParsePrice(text[m[2]:m[3]]); ok {
			prices = append(prices, p)
			if firstIdx < 0 {
				firstIdx = m[0]
			}
		}
	}
	if len(prices) < 2 {
		return PriceCheck{}, false
	}

	lines := nonEmptyLines(text[:firstIdx])
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-3; i-- {
		line := lines[i]
		if len(line) <= 2 || len(line) >= 60 || startsWithDigit(line) {
			continue
		}
		if name := cleanItemName(line); len(name) > 2 {
			return PriceCheck{Item: name, BuyPrice: prices[0], SellPrice: prices[1]}, true
		}
	}
	return PriceCheck{}, false
}

var lineNumber = regexp.MustCompile(`([\d][\d,\s.]*(?:[kmb])?)`)
var lineLabelPrefix = regexp.MustCompile(`(?i)^(buy|sell|price|gp)`)

// ExtractLineRoles assigns roles by line: the first non-price, non-label
// line is the item name, the first line mentioning "buy" carries the buy
// price, and the first mentioning "sell" the sell price. Needs at least
// three non-empty lines to be worth attempting.
func ExtractLineRoles(text string) (PriceCheck, bool) {
	lines := nonEmptyLines(text)
	if len(lines) < 3 {
		return PriceCheck{}, false
	}

	var itemName string
	var buyPrice, sellPrice int64

	for _, line := range lines {
		if itemName == "" && len(line) > 2 && len(line) < 60 &&
			!startsWithDigit(line) && !lineLabelPrefix.MatchString(line) {
			itemName = cleanItemName(line)
		}
		lower := strings.ToLower(line)
		if buyPrice == 0 && strings.Contains(lower, "buy") {
			if m := lineNumber.FindStringSubmatch(line); m != nil {
				buyPrice, _ = ParsePrice(m[1])
			}
		}
		if sellPrice == 0 && strings.Contains(lower, "sell") {
			if m := lineNumber.FindStringSubmatch(line); m != nil {
				sellPrice, _ = ParsePrice(m[1])
			}
		}
	}

	if len(itemName) > 2 && buyPrice > 0 && sellPrice > 0 {
		return PriceCheck{Item: itemName, BuyPrice: buyPrice, SellPrice: sellPrice}, true
	}
	return PriceCheck{}, false
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

var buyLimitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)buy limit[:\s]+([\d][\d,\s]*)`),
	regexp.MustCompile(`(?i)limit[:\s]+([\d][\d,\s]*)`),
	regexp.MustCompile(`(?i)([\d][\d,\s]*)\s*/\s*4h`),
	regexp.MustCompile(`(?i)([\d][\d,\s]*)\s*per\s*4\s*hours`),
}

// MaxBuyLimit is the sanity ceiling for a scraped purchase limit.
const MaxBuyLimit = 100000

// ExtractBuyLimit scans OCR text for a purchase-limit annotation. Only
// values in (0, MaxBuyLimit] are accepted.
func ExtractBuyLimit(text string) (int64, bool) {
	for _, pat := range buyLimitPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		limit, err := strconv.ParseInt(stripSeparators(m[1]), 10, 64)
		if err != nil {
			continue
		}
		if limit > 0 && limit <= MaxBuyLimit {
			return limit, true
		}
	}
	return 0, false
}
