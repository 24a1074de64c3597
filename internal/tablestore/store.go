package tablestore

import (
	"context"
	"fmt"
)

// Store is a generic named-table store. Every table is a rectangular grid of
// string cells whose first row is the header. It is the only persistence
// boundary the domain engines know about; concrete implementations back it
// with memory, PostgreSQL, or an xlsx workbook.
//
// Row indexes are zero-based and include the header row (row 0), matching how
// the tables are laid out on the original sheet. A single logical writer is
// assumed: implementations serialize individual calls but do not provide
// cross-call transactions.
type Store interface {
	// GetAllRows returns every row of the table including the header.
	// A missing table yields ErrTableNotFound.
	GetAllRows(ctx context.Context, table string) ([][]string, error)

	// AppendRow appends a data row after the last existing row.
	AppendRow(ctx context.Context, table string, row []string) error

	// UpdateCell overwrites a single cell. Row 0 is the header.
	UpdateCell(ctx context.Context, table string, rowIdx, colIdx int, value string) error

	// UpdateRow overwrites an entire row.
	UpdateRow(ctx context.Context, table string, rowIdx int, row []string) error

	// DeleteRow removes a row; subsequent rows shift up.
	DeleteRow(ctx context.Context, table string, rowIdx int) error

	// EnsureTable creates the table with the given header if it does not
	// exist. An existing table is left untouched, whatever its header.
	EnsureTable(ctx context.Context, table string, header []string) error

	// ReplaceTable clears the table and rewrites header plus rows in one
	// step. Used by full-rebuild writers such as the SKU classifier.
	ReplaceTable(ctx context.Context, table string, header []string, rows [][]string) error
}

// ErrTableNotFound is returned when a named table does not exist.
var ErrTableNotFound = fmt.Errorf("table not found")

// Header maps column names to zero-based column indexes. It is built from a
// table's first row and is the only place header names are resolved; domain
// code downstream works with typed records.
type Header map[string]int

// HeaderOf builds a Header from a header row. Empty cells are skipped.
func HeaderOf(row []string) Header {
	h := make(Header, len(row))
	for i, name := range row {
		if name != "" {
			h[name] = i
		}
	}
	return h
}

// Index returns the column index for name, or -1 if the column is absent.
func (h Header) Index(name string) int {
	i, ok := h[name]
	if !ok {
		return -1
	}
	return i
}

// Require returns the column indexes for the given names, or an error naming
// every missing column.
func (h Header) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, n := range names {
		j, ok := h[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		idx[i] = j
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %v", missing)
	}
	return idx, nil
}

// Cell returns row[h[name]], or "" when the column is absent or the row is
// short. Short rows are common on hand-edited sheets.
func (h Header) Cell(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
