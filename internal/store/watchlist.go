package store

import (
	"fmt"
	"strings"
)

// AddWatch puts an item on the watchlist. Names are kept as given but
// uniqueness is case-insensitive.
func (s *Store) AddWatch(item string) error {
	item = strings.TrimSpace(item)
	if item == "" {
		return fmt.Errorf("item name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.watchlist {
		if strings.EqualFold(w, item) {
			return fmt.Errorf("%q is already on the watchlist", item)
		}
	}
	s.watchlist = append(s.watchlist, item)
	s.saveLocked()
	return nil
}

// RemoveWatch takes an item off the watchlist.
func (s *Store) RemoveWatch(item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.watchlist {
		if strings.EqualFold(w, item) {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			s.saveLocked()
			return nil
		}
	}
	return fmt.Errorf("remove watch %q: %w", item, ErrNotFound)
}
