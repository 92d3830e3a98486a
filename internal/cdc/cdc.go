// Package cdc captures every effect applied to the product store in a
// bounded ring buffer and fans it out to subscribers.
package cdc

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prodstore/prodstore/internal/record"
)

// OpType describes the kind of mutation.
type OpType string

const (
	OpAdd     OpType = "ADD"
	OpUpdate  OpType = "UPDATE"
	OpDelete  OpType = "DELETE"
	OpRestore OpType = "RESTORE"
)

// Cause tells whether an effect came from a direct call, from undo/redo or
// from a bulk restore.
type Cause string

const (
	CauseDirect  Cause = ""
	CauseUndo    Cause = "undo"
	CauseRedo    Cause = "redo"
	CauseRestore Cause = "restore"
)

// Event is one applied effect. IDs start at 1 and have no gaps.
type Event struct {
	ID        uint64        `json:"id"`
	Timestamp int64         `json:"ts"`
	Op        OpType        `json:"op"`
	Key       string        `json:"key,omitempty"`
	Record    record.Record `json:"record"`
	Cause     Cause         `json:"cause,omitempty"`
}

// JSON returns the event as a single line of JSON.
func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Stream keeps the most recent events. Because IDs are contiguous, the event
// with ID n always lives in slot (n-1) % len(ring) while it is retained.
type Stream struct {
	mu    sync.Mutex
	ring  []Event
	last  uint64 // ID of the newest event, 0 when empty
	held  int    // events currently retained
	subs  map[uint64]*Subscription
	subID uint64
}

// NewStream creates a stream that retains up to capacity events.
func NewStream(capacity int) *Stream {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Stream{
		ring: make([]Event, capacity),
		subs: make(map[uint64]*Subscription),
	}
}

// Record stamps an event, retains it and offers it to every subscriber.
// A subscriber whose channel is full misses the event and has its drop
// counter bumped; the caller never waits.
func (s *Stream) Record(op OpType, r record.Record, cause Cause) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	ev := Event{
		ID:        s.last,
		Timestamp: time.Now().UnixMilli(),
		Op:        op,
		Key:       r.ID,
		Record:    r,
		Cause:     cause,
	}
	s.ring[s.slot(ev.ID)] = ev
	if s.held < len(s.ring) {
		s.held++
	}

	for _, sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
	}
	return ev
}

func (s *Stream) slot(id uint64) int {
	return int((id - 1) % uint64(len(s.ring)))
}

// between copies the retained events with from <= ID <= s.last.
// Caller holds s.mu.
func (s *Stream) between(from uint64) []Event {
	oldest := s.last - uint64(s.held) + 1
	if from < oldest {
		from = oldest
	}
	if s.held == 0 || from > s.last {
		return nil
	}
	out := make([]Event, 0, s.last-from+1)
	for id := from; id <= s.last; id++ {
		out = append(out, s.ring[s.slot(id)])
	}
	return out
}

// Since returns the retained events whose ID is greater than afterID,
// oldest first. Events that already fell out of the ring are not reported.
func (s *Stream) Since(afterID uint64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.between(afterID + 1)
}

// Latest returns up to n of the newest events, oldest first.
func (s *Stream) Latest(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || s.held == 0 {
		return nil
	}
	n = min(n, s.held)
	return s.between(s.last - uint64(n) + 1)
}

// Subscription delivers events recorded after it was created.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	id      uint64
	stream  *Stream
	dropped atomic.Uint64
	once    sync.Once
}

// Subscribe registers a new subscriber with a channel of the given size.
func (s *Stream) Subscribe(bufSize int) *Subscription {
	if bufSize <= 0 {
		bufSize = 256
	}
	ch := make(chan Event, bufSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subID++
	sub := &Subscription{C: ch, ch: ch, id: s.subID, stream: s}
	s.subs[sub.id] = sub
	return sub
}

// Dropped reports how many events were skipped because C was full.
func (sub *Subscription) Dropped() uint64 {
	return sub.dropped.Load()
}

// Close detaches the subscription and closes C. Events already buffered in
// C can still be drained.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		s := sub.stream
		s.mu.Lock()
		delete(s.subs, sub.id)
		close(sub.ch)
		s.mu.Unlock()
	})
}

// Stats describes the stream.
type Stats struct {
	TotalEvents uint64 `json:"total_events"`
	BufferSize  int    `json:"buffer_size"`
	BufferCap   int    `json:"buffer_cap"`
	Subscribers int    `json:"subscribers"`
}

// Stats returns current stream statistics.
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		TotalEvents: s.last,
		BufferSize:  s.held,
		BufferCap:   len(s.ring),
		Subscribers: len(s.subs),
	}
}
