// Package record defines the product record stored by prodstore and the
// validation rules every stored record must satisfy.
package record

import (
	"errors"
	"fmt"
	"math"
)

// ErrValidation is matched by every ValidationError via errors.Is.
var ErrValidation = errors.New("record: validation failed")

// Record is a single product entry. Identity is ID.
type Record struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"name" msgpack:"name"`
	Category string  `json:"category" msgpack:"category"`
	Price    float64 `json:"price" msgpack:"price"`
	Rating   float64 `json:"rating" msgpack:"rating"`
	Stock    int     `json:"stock" msgpack:"stock"`
	Sales    int     `json:"sales" msgpack:"sales"`
}

// Field names reported by ValidationError.
const (
	FieldID     = "id"
	FieldName   = "name"
	FieldPrice  = "price"
	FieldRating = "rating"
	FieldStock  = "stock"
	FieldSales  = "sales"
)

// Rating bounds (inclusive).
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// ValidationError reports the first field of a record that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate checks r field by field and returns a *ValidationError for the
// first field that is out of bounds.
func (r Record) Validate() error {
	if err := ValidateID(r.ID); err != nil {
		return err
	}
	if r.Name == "" {
		return invalid(FieldName, "must not be empty")
	}
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price < 0 {
		return invalid(FieldPrice, "must be a finite number >= 0")
	}
	if math.IsNaN(r.Rating) || r.Rating < MinRating || r.Rating > MaxRating {
		return invalid(FieldRating, fmt.Sprintf("must be between %g and %g", MinRating, MaxRating))
	}
	if r.Stock < 0 {
		return invalid(FieldStock, "must be >= 0")
	}
	if r.Sales < 0 {
		return invalid(FieldSales, "must be >= 0")
	}
	return nil
}

// ValidateID checks that id is non-empty and made only of ASCII letters,
// digits, '-' and '_'.
func ValidateID(id string) error {
	if id == "" {
		return invalid(FieldID, "must not be empty")
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return invalid(FieldID, fmt.Sprintf("illegal character %q", c))
		}
	}
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("Record{ID: %s, Name: %s, Price: %g}", r.ID, r.Name, r.Price)
}
