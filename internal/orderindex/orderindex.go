// Package orderindex implements the price-ordered index of the product store.
//
// The index is an unbalanced binary search tree. A record whose price is
// lower than a node's price is inserted to the left, every other record
// (ties included) to the right, so for each node:
//
//	left subtree prices  <  node price  <=  right subtree prices
//
// Deletion keeps that partition: an internal node takes the value of its
// in-order successor, the leftmost node of its right subtree.
package orderindex

import (
	"iter"

	"github.com/prodstore/prodstore/internal/record"
)

type node struct {
	rec         record.Record
	left, right *node
}

// Tree is a price-keyed binary search tree of records.
// It is not safe for concurrent use.
type Tree struct {
	root *node
	size int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Insert adds r. Records with equal prices are kept side by side.
func (t *Tree) Insert(r record.Record) {
	t.root = insert(t.root, r)
	t.size++
}

func insert(n *node, r record.Record) *node {
	if n == nil {
		return &node{rec: r}
	}
	if r.Price < n.rec.Price {
		n.left = insert(n.left, r)
	} else {
		n.right = insert(n.right, r)
	}
	return n
}

// Delete removes the record with the given id and reports whether it was
// present. Deleting an unknown id, or from an empty tree, is a no-op.
func (t *Tree) Delete(id string) bool {
	var found bool
	t.root, found = remove(t.root, id)
	if found {
		t.size--
	}
	return found
}

// remove searches the whole subtree because the tree is keyed by price,
// not by id.
func remove(n *node, id string) (*node, bool) {
	if n == nil {
		return nil, false
	}
	if n.rec.ID == id {
		return unlink(n), true
	}
	var found bool
	if n.left, found = remove(n.left, id); found {
		return n, true
	}
	n.right, found = remove(n.right, id)
	return n, found
}

// unlink returns the subtree that replaces n once n is removed.
func unlink(n *node) *node {
	switch {
	case n.left == nil:
		return n.right
	case n.right == nil:
		return n.left
	}
	var succ record.Record
	n.right, succ = removeMin(n.right)
	n.rec = succ
	return n
}

// removeMin detaches the leftmost node of n and returns its record.
func removeMin(n *node) (*node, record.Record) {
	if n.left == nil {
		return n.right, n.rec
	}
	var min record.Record
	n.left, min = removeMin(n.left)
	return n, min
}

// Range returns the records priced within [min, max], in ascending price
// order. The walk is lazy and pruned: it only enters a left subtree when
// the node price exceeds min and a right subtree when the node price does
// not exceed max.
//
// The returned sequence is single-use: ranging over it a second time yields
// nothing. The tree must not be modified while the sequence is in use.
func (t *Tree) Range(min, max float64) iter.Seq[record.Record] {
	root := t.root
	used := false
	return func(yield func(record.Record) bool) {
		if used {
			return
		}
		used = true
		walkRange(root, min, max, yield)
	}
}

func walkRange(n *node, min, max float64, yield func(record.Record) bool) bool {
	if n == nil {
		return true
	}
	p := n.rec.Price
	if p > min {
		if !walkRange(n.left, min, max, yield) {
			return false
		}
	}
	if p >= min && p <= max {
		if !yield(n.rec) {
			return false
		}
	}
	// Equal prices live in the right subtree, so p == max must still
	// descend right.
	if p <= max {
		return walkRange(n.right, min, max, yield)
	}
	return true
}

// All returns every record in ascending price order.
func (t *Tree) All() []record.Record {
	out := make([]record.Record, 0, t.size)
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.rec)
		walk(n.right)
	}
	walk(t.root)
	return out
}

// Len returns the number of records in the tree.
func (t *Tree) Len() int { return t.size }

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Height() int {
	var h func(n *node) int
	h = func(n *node) int {
		if n == nil {
			return 0
		}
		return 1 + max(h(n.left), h(n.right))
	}
	return h(t.root)
}

// Reset removes every record.
func (t *Tree) Reset() {
	t.root = nil
	t.size = 0
}
