package record

import (
	"cmp"
	"fmt"
	"strings"
)

// Key selects the numeric field used to order records in a sorted view.
type Key int

const (
	ByPrice Key = iota + 1
	ByRating
	BySales
)

func (k Key) String() string {
	switch k {
	case ByPrice:
		return "price"
	case ByRating:
		return "rating"
	case BySales:
		return "sales"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// ParseKey maps "price", "rating" or "sales" (case-insensitive) to a Key.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price":
		return ByPrice, nil
	case "rating":
		return ByRating, nil
	case "sales":
		return BySales, nil
	}
	return 0, fmt.Errorf("record: unknown sort key %q", s)
}

// Compare returns a 3-way comparison of a and b on key. Records with equal
// keys are ordered by ID so that the result is a total order over records
// with distinct IDs.
func Compare(a, b Record, key Key) int {
	var c int
	switch key {
	case ByRating:
		c = cmp.Compare(a.Rating, b.Rating)
	case BySales:
		c = cmp.Compare(a.Sales, b.Sales)
	default:
		c = cmp.Compare(a.Price, b.Price)
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Comparator returns the 3-way comparator for key in the given direction.
// Ties on the key are always broken by ascending ID.
func Comparator(key Key, ascending bool) func(a, b Record) int {
	if ascending {
		return func(a, b Record) int { return Compare(a, b, key) }
	}
	return func(a, b Record) int {
		var c int
		switch key {
		case ByRating:
			c = cmp.Compare(b.Rating, a.Rating)
		case BySales:
			c = cmp.Compare(b.Sales, a.Sales)
		default:
			c = cmp.Compare(b.Price, a.Price)
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
}
