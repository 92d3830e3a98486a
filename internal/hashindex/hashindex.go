// Package hashindex implements the exact-key index of the product store: a
// fixed number of buckets selected by a polynomial string hash, each bucket a
// chain of records with unique IDs.
package hashindex

import (
	"errors"

	"github.com/prodstore/prodstore/internal/record"
)

// DefaultBuckets is the bucket count used when none is configured.
const DefaultBuckets = 100

// ErrDuplicateKey is returned by Insert when the ID is already indexed.
var ErrDuplicateKey = errors.New("hashindex: duplicate key")

// Index maps record IDs to records via bucketed chaining. The bucket count
// is fixed for the lifetime of the index.
//
// Index is not safe for concurrent use; the store serialises access.
type Index struct {
	buckets [][]record.Record
	count   int
}

// New creates an index with n buckets. Non-positive n selects DefaultBuckets.
func New(n int) *Index {
	if n <= 0 {
		n = DefaultBuckets
	}
	return &Index{buckets: make([][]record.Record, n)}
}

// Hash computes the 32-bit polynomial hash of id (h = h*31 + c, wrapping on
// overflow) and returns its absolute value.
func Hash(id string) uint32 {
	var h int32
	for i := 0; i < len(id); i++ {
		h = h*31 + int32(id[i])
	}
	if h < 0 {
		// -MinInt32 overflows back to MinInt32; its bit pattern is 2^31.
		h = -h
	}
	return uint32(h)
}

// Bucket returns the bucket number id hashes to.
func (x *Index) Bucket(id string) int {
	return int(Hash(id) % uint32(len(x.buckets)))
}

// Insert adds r. It fails with ErrDuplicateKey if r.ID is already present
// and never overwrites.
func (x *Index) Insert(r record.Record) error {
	b := x.Bucket(r.ID)
	for _, e := range x.buckets[b] {
		if e.ID == r.ID {
			return ErrDuplicateKey
		}
	}
	// Chains are stored oldest first; All walks them backwards.
	x.buckets[b] = append(x.buckets[b], r)
	x.count++
	return nil
}

// Find returns the record stored under id.
func (x *Index) Find(id string) (record.Record, bool) {
	for _, e := range x.buckets[x.Bucket(id)] {
		if e.ID == id {
			return e, true
		}
	}
	return record.Record{}, false
}

// Replace overwrites the record stored under r.ID in place, keeping its
// position in the chain. It returns the previous value.
func (x *Index) Replace(r record.Record) (record.Record, bool) {
	chain := x.buckets[x.Bucket(r.ID)]
	for i := range chain {
		if chain[i].ID == r.ID {
			old := chain[i]
			chain[i] = r
			return old, true
		}
	}
	return record.Record{}, false
}

// Remove deletes and returns the record stored under id.
func (x *Index) Remove(id string) (record.Record, bool) {
	b := x.Bucket(id)
	chain := x.buckets[b]
	for i := range chain {
		if chain[i].ID == id {
			old := chain[i]
			x.buckets[b] = append(chain[:i], chain[i+1:]...)
			x.count--
			return old, true
		}
	}
	return record.Record{}, false
}

// All returns every record, bucket by bucket, most recently inserted first
// within a bucket.
func (x *Index) All() []record.Record {
	out := make([]record.Record, 0, x.count)
	for _, chain := range x.buckets {
		for i := len(chain) - 1; i >= 0; i-- {
			out = append(out, chain[i])
		}
	}
	return out
}

// Len returns the number of indexed records.
func (x *Index) Len() int { return x.count }

// Stats describes bucket occupancy.
type Stats struct {
	Buckets      int `json:"buckets"`
	UsedBuckets  int `json:"used_buckets"`
	LongestChain int `json:"longest_chain"`
}

// Stats reports how records are spread over the buckets.
func (x *Index) Stats() Stats {
	s := Stats{Buckets: len(x.buckets)}
	for _, chain := range x.buckets {
		if len(chain) > 0 {
			s.UsedBuckets++
		}
		if len(chain) > s.LongestChain {
			s.LongestChain = len(chain)
		}
	}
	return s
}

// Reset drops every record, keeping the bucket count.
func (x *Index) Reset() {
	x.buckets = make([][]record.Record, len(x.buckets))
	x.count = 0
}
