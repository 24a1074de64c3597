package tablestore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"orderdesk/internal/tablestore"
)

func TestXLSXStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "book.xlsx")

	s, err := tablestore.OpenXLSXStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := s.GetAllRows(ctx, "Orders"); !errors.Is(err, tablestore.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound for missing sheet, got %v", err)
	}

	if err := s.EnsureTable(ctx, "Orders", []string{"PONumber", "Status"}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := s.AppendRow(ctx, "Orders", []string{"PO-1", "Pending"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.UpdateCell(ctx, "Orders", 1, 1, "Approved"); err != nil {
		t.Fatalf("update cell: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen and verify the mutations survived the save.
	s2, err := tablestore.OpenXLSXStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	rows, err := s2.GetAllRows(ctx, "Orders")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "PONumber" || rows[1][0] != "PO-1" || rows[1][1] != "Approved" {
		t.Errorf("unexpected rows: %v", rows)
	}

	t.Run("ReplaceTable rebuilds the sheet", func(t *testing.T) {
		err := s2.ReplaceTable(ctx, "Orders", []string{"H"}, [][]string{{"a"}, {"b"}})
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
		rows, err := s2.GetAllRows(ctx, "Orders")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(rows) != 3 || rows[0][0] != "H" || rows[2][0] != "b" {
			t.Errorf("rows after replace = %v", rows)
		}
	})

	t.Run("DeleteRow shifts later rows up", func(t *testing.T) {
		if err := s2.DeleteRow(ctx, "Orders", 1); err != nil {
			t.Fatalf("delete: %v", err)
		}
		rows, err := s2.GetAllRows(ctx, "Orders")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(rows) != 2 || rows[1][0] != "b" {
			t.Errorf("rows after delete = %v", rows)
		}
	})
}
