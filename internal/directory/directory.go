// Package directory resolves ticker symbols to company names.
package directory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Directory is a static symbol to company name table.
type Directory struct {
	names map[string]string
}

// New builds a directory from a symbol to name map.
func New(names map[string]string) *Directory {
	d := &Directory{names: make(map[string]string, len(names))}
	for sym, name := range names {
		d.names[sym] = name
	}
	return d
}

// Load reads a listing file whose first two columns are symbol and name.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses listing rows from r. A leading "symbol" header row is skipped.
func Read(r io.Reader) (*Directory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	d := &Directory{names: make(map[string]string)}
	for first := true; ; first = false {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read listing: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		sym := strings.TrimSpace(record[0])
		if first && strings.EqualFold(sym, "symbol") {
			continue
		}
		if sym == "" {
			continue
		}
		d.names[sym] = strings.TrimSpace(record[1])
	}
	return d, nil
}

// Lookup returns the company name for symbol.
func (d *Directory) Lookup(symbol string) (string, bool) {
	name, ok := d.names[symbol]
	return name, ok
}

func (d *Directory) Len() int { return len(d.names) }

// Symbols returns all known symbols, sorted.
func (d *Directory) Symbols() []string {
	out := make([]string, 0, len(d.names))
	for sym := range d.names {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
