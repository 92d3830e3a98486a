package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/prodstore/prodstore/internal/record"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits line on whitespace. Double quotes group words, and a
// backslash inside quotes escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasArg  bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuote && c == '\\' && i+1 < len(runes):
			i++
			cur.WriteRune(runes[i])
		case c == '"':
			inQuote = !inQuote
			hasArg = true
		case !inQuote && unicode.IsSpace(c):
			if hasArg {
				args = append(args, cur.String())
				cur.Reset()
				hasArg = false
			}
		default:
			cur.WriteRune(c)
			hasArg = true
		}
	}
	if inQuote {
		return nil, errUnterminatedQuote
	}
	if hasArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func argError(field string, err error) error {
	return fmt.Errorf("invalid %s: %w", field, err)
}

// parseRecord builds a record from id name category price rating stock sales.
func parseRecord(args []string) (record.Record, error) {
	if len(args) != 7 {
		return record.Record{}, fmt.Errorf("expected 7 fields, got %d", len(args))
	}
	price, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return record.Record{}, argError(record.FieldPrice, err)
	}
	rating, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return record.Record{}, argError(record.FieldRating, err)
	}
	stock, err := strconv.Atoi(args[5])
	if err != nil {
		return record.Record{}, argError(record.FieldStock, err)
	}
	sales, err := strconv.Atoi(args[6])
	if err != nil {
		return record.Record{}, argError(record.FieldSales, err)
	}
	return record.Record{
		ID:       args[0],
		Name:     args[1],
		Category: args[2],
		Price:    price,
		Rating:   rating,
		Stock:    stock,
		Sales:    sales,
	}, nil
}
