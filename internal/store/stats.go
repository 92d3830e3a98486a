package store

import (
	"fmt"
	"slices"

	"github.com/prodstore/prodstore/internal/cdc"
	"github.com/prodstore/prodstore/internal/hashindex"
)

// Stats describes the store.
type Stats struct {
	Records    int             `json:"records"`
	Hash       hashindex.Stats `json:"hash"`
	TreeHeight int             `json:"tree_height"`
	UndoDepth  int             `json:"undo_depth"`
	RedoDepth  int             `json:"redo_depth"`
	Feed       cdc.Stats       `json:"feed"`
	TrackedIDs int             `json:"tracked_ids"`
}

// Stats returns a point-in-time description of the store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	undo, redo := s.log.Len()
	return Stats{
		Records:    s.hash.Len(),
		Hash:       s.hash.Stats(),
		TreeHeight: s.order.Height(),
		UndoDepth:  undo,
		RedoDepth:  redo,
		Feed:       s.feed.Stats(),
		TrackedIDs: s.hits.Size(),
	}
}

// Verify checks that both indexes hold the same records.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.hash.All()
	byPrice := s.order.All()
	if len(byID) != len(byPrice) || len(byID) != s.hash.Len() || len(byPrice) != s.order.Len() {
		return fmt.Errorf("%w: hash has %d records, tree has %d", ErrIndexMismatch, len(byID), len(byPrice))
	}
	for i := 1; i < len(byPrice); i++ {
		if byPrice[i].Price < byPrice[i-1].Price {
			return fmt.Errorf("%w: tree out of price order at %s", ErrIndexMismatch, byPrice[i].ID)
		}
	}
	for _, r := range byPrice {
		h, ok := s.hash.Find(r.ID)
		if !ok {
			return fmt.Errorf("%w: %s only in tree", ErrIndexMismatch, r.ID)
		}
		if h != r {
			return fmt.Errorf("%w: %s differs between indexes", ErrIndexMismatch, r.ID)
		}
	}
	ids := make([]string, len(byPrice))
	for i, r := range byPrice {
		ids[i] = r.ID
	}
	slices.Sort(ids)
	if len(slices.Compact(ids)) != len(byPrice) {
		return fmt.Errorf("%w: duplicate id in tree", ErrIndexMismatch)
	}
	return nil
}
