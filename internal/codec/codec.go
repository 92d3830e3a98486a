// Package codec reads and writes product records as delimited text, one
// record per line:
//
//	id,name,category,price,rating,stock,sales
//
// Fields that contain a comma, a double quote or a line break are quoted
// CSV style on output. Unquoted legacy files read back unchanged.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prodstore/prodstore/internal/record"
)

// NumFields is the number of fields in a record line.
const NumFields = 7

// LineError reports a line Decode could not turn into a record.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("codec: line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ErrShortLine is wrapped by LineError for lines with too few fields.
var ErrShortLine = errors.New("too few fields")

// Encode writes rs to w.
func Encode(w io.Writer, rs []record.Record) error {
	cw := csv.NewWriter(w)
	for _, r := range rs {
		if err := cw.Write(fields(r)); err != nil {
			return fmt.Errorf("codec: write %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("codec: flush: %w", err)
	}
	return nil
}

func fields(r record.Record) []string {
	return []string{
		r.ID,
		r.Name,
		r.Category,
		strconv.FormatFloat(r.Price, 'f', -1, 64),
		strconv.FormatFloat(r.Rating, 'f', -1, 64),
		strconv.Itoa(r.Stock),
		strconv.Itoa(r.Sales),
	}
}

// Decode reads records from r. Blank lines are ignored. Lines that are
// short or hold unparsable numbers are skipped and reported; extra fields
// are ignored. Records are not validated here.
func Decode(r io.Reader) ([]record.Record, []*LineError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var (
		out  []record.Record
		bad  []*LineError
		line int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				bad = append(bad, &LineError{Line: perr.StartLine, Err: perr.Err})
				continue
			}
			return out, bad, fmt.Errorf("codec: read: %w", err)
		}
		line, _ = cr.FieldPos(0)

		rec, err := parse(row)
		if err != nil {
			bad = append(bad, &LineError{Line: line, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, bad, nil
}

func parse(row []string) (record.Record, error) {
	if len(row) < NumFields {
		return record.Record{}, fmt.Errorf("%w: got %d, want %d", ErrShortLine, len(row), NumFields)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return record.Record{}, fmt.Errorf("price: %w", err)
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil {
		return record.Record{}, fmt.Errorf("rating: %w", err)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(row[5]))
	if err != nil {
		return record.Record{}, fmt.Errorf("stock: %w", err)
	}
	sales, err := strconv.Atoi(strings.TrimSpace(row[6]))
	if err != nil {
		return record.Record{}, fmt.Errorf("sales: %w", err)
	}
	return record.Record{
		ID:       row[0],
		Name:     row[1],
		Category: row[2],
		Price:    price,
		Rating:   rating,
		Stock:    stock,
		Sales:    sales,
	}, nil
}

// Save writes rs to the file at path, replacing it.
func Save(path string, rs []record.Record) error {
	if path == "" {
		return errors.New("codec: empty file name")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: create %s: %w", path, err)
	}
	if err := Encode(f, rs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads the records stored in the file at path.
func Load(path string) ([]record.Record, []*LineError, error) {
	if path == "" {
		return nil, nil, errors.New("codec: empty file name")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("codec: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
