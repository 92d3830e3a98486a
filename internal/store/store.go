// Package store provides the in-memory product store. Every record is held
// in two indexes at once, a hash index for exact ID lookups and a price
// ordered tree for range queries, and every mutation made through the
// public API is recorded in a command log so it can be undone and redone.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/prodstore/prodstore/internal/cdc"
	"github.com/prodstore/prodstore/internal/cmdlog"
	"github.com/prodstore/prodstore/internal/hashindex"
	"github.com/prodstore/prodstore/internal/logging"
	"github.com/prodstore/prodstore/internal/orderindex"
	"github.com/prodstore/prodstore/internal/popular"
	"github.com/prodstore/prodstore/internal/record"
	"github.com/prodstore/prodstore/internal/sorting"
)

var (
	// ErrDuplicateKey is returned by Add when the ID is already stored.
	ErrDuplicateKey = errors.New("store: duplicate key")
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidRange is returned by RangeView for negative or inverted bounds.
	ErrInvalidRange = errors.New("store: invalid range")
	// ErrIndexMismatch means the two indexes disagree about a record. It is
	// never expected; the failed operation is rolled back.
	ErrIndexMismatch = errors.New("store: indexes out of sync")
)

// origin identifies who drives a mutation. Only direct mutations are
// recorded in the command log; the others run silently.
type origin int

const (
	direct origin = iota
	fromUndo
	fromRedo
	fromRestore
)

func (o origin) silent() bool { return o != direct }

func (o origin) cause() cdc.Cause {
	switch o {
	case fromUndo:
		return cdc.CauseUndo
	case fromRedo:
		return cdc.CauseRedo
	case fromRestore:
		return cdc.CauseRestore
	}
	return cdc.CauseDirect
}

// Store is the product store. It is safe for concurrent use: one writer at
// a time, so both indexes and the command log always change together.
type Store struct {
	mu     sync.RWMutex
	hash   *hashindex.Index
	order  *orderindex.Tree
	log    *cmdlog.Log
	feed   *cdc.Stream
	hits   *popular.Tracker
	logger *slog.Logger
}

type options struct {
	buckets  int
	logger   *slog.Logger
	feed     *cdc.Stream
	feedSize int
	hits     *popular.Tracker
}

// Option configures a Store.
type Option func(*options)

// WithBuckets sets the hash index bucket count.
func WithBuckets(n int) Option {
	return func(o *options) { o.buckets = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithChangeFeed makes the store publish its effects to feed.
func WithChangeFeed(feed *cdc.Stream) Option {
	return func(o *options) { o.feed = feed }
}

// WithLookupTracker makes Find count successful lookups in t.
func WithLookupTracker(t *popular.Tracker) Option {
	return func(o *options) { o.hits = t }
}

// WithChangeFeedSize sets the capacity of the store's own change feed. It
// is ignored when WithChangeFeed is given.
func WithChangeFeedSize(n int) Option {
	return func(o *options) { o.feedSize = n }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := options{buckets: hashindex.DefaultBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	if o.feed == nil {
		o.feed = cdc.NewStream(o.feedSize)
	}
	if o.hits == nil {
		o.hits = popular.New(0, 0)
	}
	return &Store{
		hash:   hashindex.New(o.buckets),
		order:  orderindex.New(),
		log:    cmdlog.New(),
		feed:   o.feed,
		hits:   o.hits,
		logger: logging.Default(o.logger).With("component", "store"),
	}
}

// Add stores r. It fails with a *record.ValidationError if r is malformed
// and with ErrDuplicateKey if r.ID is already stored.
func (s *Store) Add(r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(r, direct)
}

// Find returns the record stored under id.
func (s *Store) Find(id string) (record.Record, error) {
	if err := record.ValidateID(id); err != nil {
		return record.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.hash.Find(id)
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.hits.Hit(id)
	return r, nil
}

// Update replaces the record stored under id with r. The stored ID stays
// id whatever r.ID holds.
func (s *Store) Update(id string, r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(id, r, direct)
}

// Delete removes the record stored under id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.remove(id, direct)
	return err
}

func (s *Store) add(r record.Record, o origin) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.hash.Insert(r); err != nil {
		if errors.Is(err, hashindex.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, r.ID)
		}
		return err
	}
	s.order.Insert(r)

	if !o.silent() {
		s.log.Record(cmdlog.Command{Kind: cmdlog.Add, After: r})
	}
	s.publish(cdc.OpAdd, r, o)
	s.logger.Debug("add", "id", r.ID, "cause", o.cause())
	return nil
}

func (s *Store) update(id string, r record.Record, o origin) error {
	if err := record.ValidateID(id); err != nil {
		return err
	}
	r.ID = id
	if err := r.Validate(); err != nil {
		return err
	}
	old, ok := s.hash.Replace(r)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	// The price may have moved, so the tree node is re-inserted.
	if !s.order.Delete(id) {
		s.hash.Replace(old)
		return fmt.Errorf("%w: update %s", ErrIndexMismatch, id)
	}
	s.order.Insert(r)

	if !o.silent() {
		s.log.Record(cmdlog.Command{Kind: cmdlog.Update, After: r, Before: old})
	}
	s.publish(cdc.OpUpdate, r, o)
	s.logger.Debug("update", "id", id, "cause", o.cause())
	return nil
}

func (s *Store) remove(id string, o origin) (record.Record, error) {
	if err := record.ValidateID(id); err != nil {
		return record.Record{}, err
	}
	old, ok := s.hash.Remove(id)
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !s.order.Delete(id) {
		// Re-inserting a record just removed cannot collide.
		_ = s.hash.Insert(old)
		return record.Record{}, fmt.Errorf("%w: delete %s", ErrIndexMismatch, id)
	}

	if !o.silent() {
		s.log.Record(cmdlog.Command{Kind: cmdlog.Delete, After: old, Before: old})
	}
	s.hits.Forget(id)
	s.publish(cdc.OpDelete, old, o)
	s.logger.Debug("delete", "id", id, "cause", o.cause())
	return old, nil
}

func (s *Store) publish(op cdc.OpType, r record.Record, o origin) {
	if o == fromRestore {
		return
	}
	s.feed.Record(op, r, o.cause())
}

// apply performs c through the silent mutators.
func (s *Store) apply(c cmdlog.Command, o origin) error {
	switch c.Kind {
	case cmdlog.Add:
		return s.add(c.After, o)
	case cmdlog.Update:
		return s.update(c.After.ID, c.After, o)
	case cmdlog.Delete:
		_, err := s.remove(c.After.ID, o)
		return err
	}
	return fmt.Errorf("store: unknown command kind %v", c.Kind)
}

// Action is the direction of an Effect.
type Action int

const (
	Undone Action = iota + 1
	Redone
)

func (a Action) String() string {
	if a == Redone {
		return "redo"
	}
	return "undo"
}

// Effect describes what an Undo or Redo did.
type Effect struct {
	Action Action
	// Command is the logged mutation that was reversed or replayed.
	Command cmdlog.Command
	// Applied is the mutation that was performed on the indexes.
	Applied cmdlog.Command
}

func (e Effect) String() string {
	return fmt.Sprintf("%s %s (applied %s)", e.Action, e.Command, e.Applied.Kind)
}

// Undo reverses the most recent logged mutation. It reports false when
// there is nothing to undo. An error means the indexes disagreed with the
// log; the log is then discarded.
func (s *Store) Undo() (Effect, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.log.Undo()
	if !ok {
		return Effect{}, false, nil
	}
	inv := c.Inverse()
	if err := s.apply(inv, fromUndo); err != nil {
		s.log.Clear()
		s.logger.Error("undo failed, command log cleared", "command", c.String(), "error", err)
		return Effect{}, false, fmt.Errorf("store: undo %s: %w", c, err)
	}
	return Effect{Action: Undone, Command: c, Applied: inv}, true, nil
}

// Redo re-applies the most recently undone mutation. It reports false when
// there is nothing to redo.
func (s *Store) Redo() (Effect, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.log.Redo()
	if !ok {
		return Effect{}, false, nil
	}
	if err := s.apply(c, fromRedo); err != nil {
		s.log.Clear()
		s.logger.Error("redo failed, command log cleared", "command", c.String(), "error", err)
		return Effect{}, false, fmt.Errorf("store: redo %s: %w", c, err)
	}
	s.log.PushUndo(c)
	return Effect{Action: Redone, Command: c, Applied: c}, true, nil
}

// SortedView returns every record ordered by key. Records with equal keys
// are ordered by ID, so both algorithms return the same sequence.
func (s *Store) SortedView(key record.Key, alg sorting.Algorithm, ascending bool) []record.Record {
	s.mu.RLock()
	all := s.hash.All()
	s.mu.RUnlock()
	return sorting.Records(all, key, alg, ascending)
}

// RangeView returns the records priced within [min, max] in ascending price
// order.
func (s *Store) RangeView(min, max float64) ([]record.Record, error) {
	if math.IsNaN(min) || math.IsNaN(max) || min < 0 || max < 0 || min > max {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, min, max)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(s.order.Range(min, max)), nil
}

// Snapshot returns every record in hash index order: bucket by bucket,
// most recently inserted first within a bucket.
func (s *Store) Snapshot() []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hash.All()
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hash.Len()
}

// Popular returns the n most looked-up records, most requested first.
// n <= 0 means the tracker default.
func (s *Store) Popular(n int) []popular.Entry {
	return s.hits.Top(n)
}

// Feed returns the change feed the store publishes to.
func (s *Store) Feed() *cdc.Stream {
	return s.feed
}
