// Package sorting provides the merge sort and quick sort used for on-demand
// ordered views of the store.
package sorting

import (
	"fmt"
	"strings"

	"github.com/prodstore/prodstore/internal/record"
)

// Algorithm selects a sort implementation.
type Algorithm int

const (
	Merge Algorithm = iota + 1
	Quick
)

func (a Algorithm) String() string {
	switch a {
	case Merge:
		return "merge"
	case Quick:
		return "quick"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps "merge" or "quick" (case-insensitive) to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "merge":
		return Merge, nil
	case "quick":
		return Quick, nil
	}
	return 0, fmt.Errorf("sorting: unknown algorithm %q", s)
}

// MergeSort sorts s in place with a top-down merge sort. An element from
// the left run is taken whenever cmp(left, right) <= 0.
func MergeSort[T any](s []T, cmp func(a, b T) int) {
	if len(s) < 2 {
		return
	}
	buf := make([]T, len(s))
	mergeSort(s, buf, cmp)
}

func mergeSort[T any](s, buf []T, cmp func(a, b T) int) {
	if len(s) < 2 {
		return
	}
	mid := (len(s) - 1) / 2
	mergeSort(s[:mid+1], buf[:mid+1], cmp)
	mergeSort(s[mid+1:], buf[mid+1:], cmp)

	copy(buf, s)
	left, right := buf[:mid+1], buf[mid+1:len(s)]
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if cmp(left[i], right[j]) <= 0 {
			s[k] = left[i]
			i++
		} else {
			s[k] = right[j]
			j++
		}
		k++
	}
	k += copy(s[k:], left[i:])
	copy(s[k:], right[j:])
}

// QuickSort sorts s in place with a quick sort using the Lomuto partition
// scheme and the last element as pivot. Worst case is quadratic, e.g. on
// already sorted input.
func QuickSort[T any](s []T, cmp func(a, b T) int) {
	quickSort(s, 0, len(s)-1, cmp)
}

func quickSort[T any](s []T, lo, hi int, cmp func(a, b T) int) {
	for lo < hi {
		p := partition(s, lo, hi, cmp)
		// Recurse into the smaller side to bound stack depth.
		if p-lo < hi-p {
			quickSort(s, lo, p-1, cmp)
			lo = p + 1
		} else {
			quickSort(s, p+1, hi, cmp)
			hi = p - 1
		}
	}
}

func partition[T any](s []T, lo, hi int, cmp func(a, b T) int) int {
	pivot := s[hi]
	i := lo - 1
	for j := lo; j < hi; j++ {
		if cmp(s[j], pivot) <= 0 {
			i++
			s[i], s[j] = s[j], s[i]
		}
	}
	s[i+1], s[hi] = s[hi], s[i+1]
	return i + 1
}

// Records returns a sorted copy of rs ordered by key in the given direction.
// Both algorithms produce the same order because record comparison breaks
// key ties by ID.
func Records(rs []record.Record, key record.Key, alg Algorithm, ascending bool) []record.Record {
	out := make([]record.Record, len(rs))
	copy(out, rs)
	cmp := record.Comparator(key, ascending)
	switch alg {
	case Quick:
		QuickSort(out, cmp)
	default:
		MergeSort(out, cmp)
	}
	return out
}
