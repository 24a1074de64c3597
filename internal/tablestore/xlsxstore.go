package tablestore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// XLSXStore is a Store backed by an xlsx workbook, one worksheet per table.
// It lets the whole workflow run directly against a workbook exported from
// the spreadsheet platform the system originated on. The workbook is saved
// after every mutation; a single logical writer is assumed.
type XLSXStore struct {
	mu   sync.Mutex
	path string
	f    *excelize.File
}

// OpenXLSXStore opens the workbook at path, creating it if absent.
func OpenXLSXStore(path string) (*XLSXStore, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", path, err)
		}
		return &XLSXStore{path: path, f: f}, nil
	}
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("create workbook %s: %w", path, err)
	}
	return &XLSXStore{path: path, f: f}, nil
}

// Close releases the underlying workbook handle.
func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func (s *XLSXStore) sheetExists(table string) bool {
	idx, err := s.f.GetSheetIndex(table)
	return err == nil && idx >= 0
}

func (s *XLSXStore) GetAllRows(_ context.Context, table string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sheetExists(table) {
		return nil, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	rows, err := s.f.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", table, err)
	}
	return rows, nil
}

func (s *XLSXStore) AppendRow(_ context.Context, table string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sheetExists(table) {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	rows, err := s.f.GetRows(table)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", table, err)
	}
	if err := s.writeRow(table, len(rows), row); err != nil {
		return err
	}
	return s.save()
}

func (s *XLSXStore) UpdateCell(_ context.Context, table string, rowIdx, colIdx int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sheetExists(table) {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return fmt.Errorf("cell (%d,%d): %w", rowIdx, colIdx, err)
	}
	if err := s.f.SetCellStr(table, cell, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", table, cell, err)
	}
	return s.save()
}

func (s *XLSXStore) UpdateRow(_ context.Context, table string, rowIdx int, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sheetExists(table) {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	if err := s.writeRow(table, rowIdx, row); err != nil {
		return err
	}
	return s.save()
}

func (s *XLSXStore) DeleteRow(_ context.Context, table string, rowIdx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sheetExists(table) {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	if err := s.f.RemoveRow(table, rowIdx+1); err != nil {
		return fmt.Errorf("delete %s row %d: %w", table, rowIdx, err)
	}
	return s.save()
}

func (s *XLSXStore) EnsureTable(_ context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetExists(table) {
		return nil
	}
	if _, err := s.f.NewSheet(table); err != nil {
		return fmt.Errorf("create sheet %s: %w", table, err)
	}
	if err := s.writeRow(table, 0, header); err != nil {
		return err
	}
	return s.save()
}

func (s *XLSXStore) ReplaceTable(_ context.Context, table string, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetExists(table) {
		if err := s.f.DeleteSheet(table); err != nil {
			return fmt.Errorf("drop sheet %s: %w", table, err)
		}
	}
	if _, err := s.f.NewSheet(table); err != nil {
		return fmt.Errorf("create sheet %s: %w", table, err)
	}
	if err := s.writeRow(table, 0, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := s.writeRow(table, i+1, r); err != nil {
			return err
		}
	}
	return s.save()
}

func (s *XLSXStore) writeRow(table string, rowIdx int, row []string) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	start, err := excelize.CoordinatesToCellName(1, rowIdx+1)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowIdx, err)
	}
	if err := s.f.SetSheetRow(table, start, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", table, rowIdx, err)
	}
	return nil
}

func (s *XLSXStore) save() error {
	if err := s.f.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}
