package tablestore_test

import (
	"context"
	"errors"
	"testing"

	"orderdesk/internal/tablestore"
)

func TestMemStore_TableLifecycle(t *testing.T) {
	ctx := context.Background()
	s := tablestore.NewMemStore()

	t.Run("missing table returns ErrTableNotFound", func(t *testing.T) {
		_, err := s.GetAllRows(ctx, "Nope")
		if !errors.Is(err, tablestore.ErrTableNotFound) {
			t.Fatalf("expected ErrTableNotFound, got %v", err)
		}
		if err := s.AppendRow(ctx, "Nope", []string{"x"}); !errors.Is(err, tablestore.ErrTableNotFound) {
			t.Fatalf("expected ErrTableNotFound on append, got %v", err)
		}
	})

	t.Run("EnsureTable creates header once", func(t *testing.T) {
		if err := s.EnsureTable(ctx, "T", []string{"A", "B"}); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		// A second ensure with a different header must not clobber the first.
		if err := s.EnsureTable(ctx, "T", []string{"X"}); err != nil {
			t.Fatalf("second ensure: %v", err)
		}
		rows, err := s.GetAllRows(ctx, "T")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(rows) != 1 || rows[0][0] != "A" || rows[0][1] != "B" {
			t.Errorf("unexpected header row: %v", rows)
		}
	})

	t.Run("append and update", func(t *testing.T) {
		if err := s.AppendRow(ctx, "T", []string{"1", "2"}); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := s.UpdateCell(ctx, "T", 1, 1, "9"); err != nil {
			t.Fatalf("update cell: %v", err)
		}
		if err := s.UpdateRow(ctx, "T", 1, []string{"7", "8"}); err != nil {
			t.Fatalf("update row: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "T")
		if rows[1][0] != "7" || rows[1][1] != "8" {
			t.Errorf("row after updates = %v", rows[1])
		}
	})

	t.Run("UpdateCell pads short rows", func(t *testing.T) {
		if err := s.AppendRow(ctx, "T", []string{"only"}); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := s.UpdateCell(ctx, "T", 2, 3, "far"); err != nil {
			t.Fatalf("update cell: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "T")
		if len(rows[2]) != 4 || rows[2][3] != "far" {
			t.Errorf("padded row = %v", rows[2])
		}
	})

	t.Run("DeleteRow shifts later rows up", func(t *testing.T) {
		if err := s.DeleteRow(ctx, "T", 1); err != nil {
			t.Fatalf("delete: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "T")
		if len(rows) != 2 || rows[1][0] != "only" {
			t.Errorf("rows after delete = %v", rows)
		}
	})

	t.Run("out of range row errors", func(t *testing.T) {
		if err := s.UpdateCell(ctx, "T", 99, 0, "x"); err == nil {
			t.Error("expected error for out-of-range row")
		}
		if err := s.DeleteRow(ctx, "T", -1); err == nil {
			t.Error("expected error for negative row")
		}
	})

	t.Run("ReplaceTable rewrites everything", func(t *testing.T) {
		err := s.ReplaceTable(ctx, "T", []string{"H"}, [][]string{{"r1"}, {"r2"}})
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "T")
		if len(rows) != 3 || rows[0][0] != "H" || rows[2][0] != "r2" {
			t.Errorf("rows after replace = %v", rows)
		}
	})

	t.Run("returned rows are copies", func(t *testing.T) {
		rows, _ := s.GetAllRows(ctx, "T")
		rows[1][0] = "mutated"
		again, _ := s.GetAllRows(ctx, "T")
		if again[1][0] != "r1" {
			t.Error("store contents mutated through returned slice")
		}
	})
}

func TestHeader(t *testing.T) {
	h := tablestore.HeaderOf([]string{"SKU", "Outlet", "", "Qty"})

	if got := h.Index("Outlet"); got != 1 {
		t.Errorf("Index(Outlet) = %d, want 1", got)
	}
	if got := h.Index("Missing"); got != -1 {
		t.Errorf("Index(Missing) = %d, want -1", got)
	}

	t.Run("Require reports every missing column", func(t *testing.T) {
		if _, err := h.Require("SKU", "Qty"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := h.Require("SKU", "Nope", "AlsoNope")
		if err == nil {
			t.Fatal("expected error for missing columns")
		}
	})

	t.Run("Cell tolerates short rows and unknown columns", func(t *testing.T) {
		row := []string{"ABC", "Store 1"}
		if got := h.Cell(row, "SKU"); got != "ABC" {
			t.Errorf("Cell(SKU) = %q", got)
		}
		if got := h.Cell(row, "Qty"); got != "" {
			t.Errorf("Cell(Qty) on short row = %q, want empty", got)
		}
		if got := h.Cell(row, "Unknown"); got != "" {
			t.Errorf("Cell(Unknown) = %q, want empty", got)
		}
	})
}
