package shell

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/prodstore/prodstore/internal/record"
)

// printer writes replies, tables and key-value views.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

func (p *printer) ok(format string, args ...any) {
	p.printf("OK "+format+"\n", args...)
}

func (p *printer) errorf(format string, args ...any) {
	p.printf("ERR "+format+"\n", args...)
}

func (p *printer) warnf(format string, args ...any) {
	p.printf("WARN "+format+"\n", args...)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// kv prints a key-value detail view.
func (p *printer) kv(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, pair := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1])
	}
	_ = tw.Flush()
}

var recordHeader = []string{"ID", "NAME", "CATEGORY", "PRICE", "RATING", "STOCK", "SALES"}

func recordRow(r record.Record) []string {
	return []string{
		r.ID,
		r.Name,
		r.Category,
		formatPrice(r.Price),
		strconv.FormatFloat(r.Rating, 'f', 1, 64),
		strconv.Itoa(r.Stock),
		strconv.Itoa(r.Sales),
	}
}

func formatPrice(p float64) string {
	return "$" + strconv.FormatFloat(p, 'f', 2, 64)
}

// records prints rs as a table followed by a count line.
func (p *printer) records(rs []record.Record) {
	if len(rs) == 0 {
		p.println("No products.")
		return
	}
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, recordRow(r))
	}
	p.table(recordHeader, rows)
	p.printf("(%d products)\n", len(rs))
}

func (p *printer) record(r record.Record) {
	row := recordRow(r)
	pairs := make([][2]string, len(recordHeader))
	for i, h := range recordHeader {
		pairs[i] = [2]string{h, row[i]}
	}
	p.kv(pairs)
}
