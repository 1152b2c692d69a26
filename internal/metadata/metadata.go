// Package metadata is for GISAID metadata tables (comma or tab separated)
// indexed by their accession column.
package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumn is returned when a table lacks a column that was asked for.
var ErrMissingColumn = errors.New("missing column")

// Table is an in-memory metadata table. Rows are looked up by accession
// and the first row with an accession wins.
type Table struct {
	// columns maps a column name to its index
	columns map[string]int

	// rows are the table body, header excluded
	rows [][]string

	// index maps an accession to its first row
	index map[string]int
}

// Row is a single table row.
type Row struct {
	t      *Table
	fields []string
}

// Load reads a delimited metadata file. idColumn is the accession column,
// required lists other columns that must be present.
func Load(path string, delim rune, idColumn string, required ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, delim, idColumn, required...)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}
	return t, nil
}

// Read a delimited metadata table from r.
func Read(r io.Reader, delim rune, idColumn string, required ...string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("no header row")
	}
	if err != nil {
		return nil, err
	}

	t := &Table{
		columns: make(map[string]int, len(header)),
		index:   make(map[string]int),
	}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}

	for _, name := range append([]string{idColumn}, required...) {
		if _, ok := t.columns[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	idIndex := t.columns[idColumn]
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		id := fields[idIndex]
		if _, seen := t.index[id]; !seen {
			t.index[id] = len(t.rows)
		}
		t.rows = append(t.rows, fields)
	}

	return t, nil
}

// Len is the number of rows, header excluded.
func (t *Table) Len() int {
	return len(t.rows)
}

// Contains reports whether any row has the accession.
func (t *Table) Contains(accession string) bool {
	_, ok := t.index[accession]
	return ok
}

// Lookup the first row with an accession.
func (t *Table) Lookup(accession string) (Row, bool) {
	i, ok := t.index[accession]
	if !ok {
		return Row{}, false
	}
	return Row{t: t, fields: t.rows[i]}, true
}

// Get the value of a column. Unknown columns are empty.
func (r Row) Get(column string) string {
	if r.t == nil {
		return ""
	}
	i, ok := r.t.columns[column]
	if !ok {
		return ""
	}
	return r.fields[i]
}
