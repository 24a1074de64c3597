package tablestore_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"orderdesk/internal/tablestore"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS table_rows (
			table_name text    NOT NULL,
			row_num    integer NOT NULL,
			cells      jsonb   NOT NULL,
			PRIMARY KEY (table_name, row_num)
		);
		TRUNCATE TABLE table_rows;
	`)
	if err != nil {
		t.Fatalf("Failed to prepare test database: %v", err)
	}

	return pool
}

func TestPGStore_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	s := tablestore.NewPGStore(pool)

	t.Run("missing table returns ErrTableNotFound", func(t *testing.T) {
		_, err := s.GetAllRows(ctx, "Nope")
		if !errors.Is(err, tablestore.ErrTableNotFound) {
			t.Fatalf("expected ErrTableNotFound, got %v", err)
		}
	})

	t.Run("ensure, append, read back", func(t *testing.T) {
		if err := s.EnsureTable(ctx, "Orders", []string{"PONumber", "Status"}); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		// Re-ensure with a different header must be a no-op.
		if err := s.EnsureTable(ctx, "Orders", []string{"Other"}); err != nil {
			t.Fatalf("re-ensure: %v", err)
		}
		if err := s.AppendRow(ctx, "Orders", []string{"PO-1", "Pending"}); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := s.AppendRow(ctx, "Orders", []string{"PO-2", "Pending"}); err != nil {
			t.Fatalf("append: %v", err)
		}
		rows, err := s.GetAllRows(ctx, "Orders")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(rows) != 3 || rows[0][0] != "PONumber" || rows[2][0] != "PO-2" {
			t.Errorf("unexpected rows: %v", rows)
		}
	})

	t.Run("UpdateCell pads short rows", func(t *testing.T) {
		if err := s.UpdateCell(ctx, "Orders", 1, 3, "extra"); err != nil {
			t.Fatalf("update cell: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "Orders")
		if len(rows[1]) != 4 || rows[1][3] != "extra" {
			t.Errorf("padded row = %v", rows[1])
		}
	})

	t.Run("DeleteRow renumbers so rows stay dense", func(t *testing.T) {
		if err := s.DeleteRow(ctx, "Orders", 1); err != nil {
			t.Fatalf("delete: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "Orders")
		if len(rows) != 2 || rows[1][0] != "PO-2" {
			t.Errorf("rows after delete = %v", rows)
		}
		// The next append must land right after the surviving rows.
		if err := s.AppendRow(ctx, "Orders", []string{"PO-3", "Pending"}); err != nil {
			t.Fatalf("append after delete: %v", err)
		}
		rows, _ = s.GetAllRows(ctx, "Orders")
		if len(rows) != 3 || rows[2][0] != "PO-3" {
			t.Errorf("rows after append = %v", rows)
		}
	})

	t.Run("ReplaceTable rewrites everything", func(t *testing.T) {
		err := s.ReplaceTable(ctx, "Orders", []string{"H"}, [][]string{{"a"}, {"b"}})
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
		rows, _ := s.GetAllRows(ctx, "Orders")
		if len(rows) != 3 || rows[0][0] != "H" || rows[2][0] != "b" {
			t.Errorf("rows after replace = %v", rows)
		}
	})
}
