package limits

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"
)

// DefaultLimit is the fallback purchase limit when nothing better is known.
const DefaultLimit = 10000

// Fetcher is the remote lookup the resolver falls back to on a cache miss.
type Fetcher interface {
	FetchLimit(ctx context.Context, itemName string) (int64, error)
}

// Resolver answers "how many of this item can be bought per 4h window".
// It never fails: cache, remote lookup, substring match, and keyword
// heuristics are tried in that order before the global default.
type Resolver struct {
	mu      sync.Mutex
	cache   map[string]int64
	gen     uint64
	fetcher Fetcher
}

// NewResolver creates a resolver. fetcher may be nil to disable remote
// lookups entirely.
func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{
		cache:   make(map[string]int64),
		fetcher: fetcher,
	}
}

// LoadSeedFile primes the cache from a local JSON file of the shape
// {"limits": {"item name": 100}}. A missing file is not an error.
func (r *Resolver) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var seed struct {
		Limits map[string]int64 `json:"limits"`
	}
	if err := json.Unmarshal(data, &seed); err != nil {
		return err
	}
	r.Prime(seed.Limits)
	log.Printf("[INFO] limit cache seeded with %d items", len(seed.Limits))
	return nil
}

// Prime inserts known limits into the cache, keyed case-insensitively.
func (r *Resolver) Prime(limits map[string]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, limit := range limits {
		if limit > 0 {
			r.cache[strings.ToLower(strings.TrimSpace(name))] = limit
		}
	}
}

// Learn records a limit observed elsewhere (OCR extraction) in the cache.
func (r *Resolver) Learn(itemName string, limit int64) {
	if limit <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[strings.ToLower(strings.TrimSpace(itemName))] = limit
}

// Reset advances the generation counter so that any remote lookup already
// in flight is discarded when it lands. The cache itself survives: limits
// are facts about the exchange, not user state.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
}

// Resolve returns a usable purchase limit for the item. Stages are tried
// strictly in order; each only runs if the prior yielded nothing.
func (r *Resolver) Resolve(ctx context.Context, itemName string) int64 {
	normalized := strings.ToLower(strings.TrimSpace(itemName))
	if normalized == "" {
		return DefaultLimit
	}

	r.mu.Lock()
	if limit, ok := r.cache[normalized]; ok {
		r.mu.Unlock()
		return limit
	}
	startGen := r.gen
	r.mu.Unlock()

	if r.fetcher != nil {
		if limit, err := r.fetcher.FetchLimit(ctx, itemName); err == nil && limit > 0 {
			r.mu.Lock()
			stale := r.gen != startGen
			if !stale {
				r.cache[normalized] = limit
			}
			r.mu.Unlock()
			if !stale {
				return limit
			}
			log.Printf("[WARN] discarding stale limit lookup for %q", itemName)
		}
	}

	r.mu.Lock()
	for key, limit := range r.cache {
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			r.mu.Unlock()
			return limit
		}
	}
	r.mu.Unlock()

	if limit, ok := keywordLimit(normalized); ok {
		return limit
	}
	return DefaultLimit
}

// Keyword classes, most restrictive first: endgame rarities trade in single
// digits, mid-tier armor by the hundred, raw materials by the crate.
var keywordClasses = []struct {
	keywords []string
	limit    int64
}{
	{[]string{"godsword", "whip", "drygore", "noxious", "title scroll"}, 10},
	{[]string{"rune full", "rune plate", "bandos", "armadyl"}, 100},
	{[]string{"ore", "logs", "grimy", "rune"}, 10000},
}

func keywordLimit(normalized string) (int64, bool) {
	for _, class := range keywordClasses {
		for _, kw := range class.keywords {
			if strings.Contains(normalized, kw) {
				return class.limit, true
			}
		}
	}
	return 0, false
}
