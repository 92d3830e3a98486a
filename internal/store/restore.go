package store

import (
	"fmt"

	"github.com/prodstore/prodstore/internal/cdc"
	"github.com/prodstore/prodstore/internal/record"
)

// Skipped is a record Restore refused to load.
type Skipped struct {
	Index int
	ID    string
	Err   error
}

func (s Skipped) Error() string {
	return fmt.Sprintf("record %d (%q): %v", s.Index, s.ID, s.Err)
}

// RestoreReport summarises a Restore.
type RestoreReport struct {
	Loaded  int
	Skipped []Skipped
}

// Restore replaces the contents of the store with rs. Each record goes
// through the same checks as Add; invalid and duplicate records are skipped
// and reported, never fatal. The command log starts empty afterwards.
func (s *Store) Restore(rs []record.Record) RestoreReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hash.Reset()
	s.order.Reset()
	s.log.Clear()
	s.hits.Reset()

	var rep RestoreReport
	for i, r := range rs {
		if err := s.add(r, fromRestore); err != nil {
			rep.Skipped = append(rep.Skipped, Skipped{Index: i, ID: r.ID, Err: err})
			s.logger.Warn("restore: skipped record", "index", i, "id", r.ID, "error", err)
			continue
		}
		rep.Loaded++
	}
	s.feed.Record(cdc.OpRestore, record.Record{}, cdc.CauseDirect)
	s.logger.Info("restore complete", "loaded", rep.Loaded, "skipped", len(rep.Skipped))
	return rep
}
