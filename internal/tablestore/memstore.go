package tablestore

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store. It backs unit tests and one-shot runs that
// import data from elsewhere; contents are lost when the process exits.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string][][]string)}
}

func (s *MemStore) GetAllRows(_ context.Context, table string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (s *MemStore) AppendRow(_ context.Context, table string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	s.tables[table] = append(rows, append([]string(nil), row...))
	return nil
}

func (s *MemStore) UpdateCell(_ context.Context, table string, rowIdx, colIdx int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	if rowIdx < 0 || rowIdx >= len(rows) {
		return fmt.Errorf("%s: row %d out of range", table, rowIdx)
	}
	row := rows[rowIdx]
	// Pad short rows so hand-edited tables with ragged rows stay writable.
	for colIdx >= len(row) {
		row = append(row, "")
	}
	row[colIdx] = value
	rows[rowIdx] = row
	return nil
}

func (s *MemStore) UpdateRow(_ context.Context, table string, rowIdx int, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	if rowIdx < 0 || rowIdx >= len(rows) {
		return fmt.Errorf("%s: row %d out of range", table, rowIdx)
	}
	rows[rowIdx] = append([]string(nil), row...)
	return nil
}

func (s *MemStore) DeleteRow(_ context.Context, table string, rowIdx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	if rowIdx < 0 || rowIdx >= len(rows) {
		return fmt.Errorf("%s: row %d out of range", table, rowIdx)
	}
	s.tables[table] = append(rows[:rowIdx], rows[rowIdx+1:]...)
	return nil
}

func (s *MemStore) EnsureTable(_ context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table]; ok {
		return nil
	}
	s.tables[table] = [][]string{append([]string(nil), header...)}
	return nil
}

func (s *MemStore) ReplaceTable(_ context.Context, table string, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([][]string, 0, len(rows)+1)
	all = append(all, append([]string(nil), header...))
	for _, r := range rows {
		all = append(all, append([]string(nil), r...))
	}
	s.tables[table] = all
	return nil
}
