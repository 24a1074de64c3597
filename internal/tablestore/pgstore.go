package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a PostgreSQL-backed Store. Every logical table lives in a single
// relation keyed by (table_name, row_num), with the cells of each row stored
// as a jsonb string array. Row 0 is the header, exactly as on the sheet.
//
// Schema (see migrations/001_tablestore.sql):
//
//	CREATE TABLE table_rows (
//	    table_name text    NOT NULL,
//	    row_num    integer NOT NULL,
//	    cells      jsonb   NOT NULL,
//	    PRIMARY KEY (table_name, row_num)
//	);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a Store backed by PostgreSQL.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GetAllRows(ctx context.Context, table string) ([][]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT cells FROM table_rows WHERE table_name = $1 ORDER BY row_num",
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}
		var cells []string
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, fmt.Errorf("decode row of %s: %w", table, err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	return out, nil
}

func (s *PGStore) AppendRow(ctx context.Context, table string, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row for %s: %w", table, err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO table_rows (table_name, row_num, cells)
		SELECT $1, COALESCE(MAX(row_num), -1) + 1, $2
		FROM table_rows WHERE table_name = $1`,
		table, cells,
	)
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	return nil
}

func (s *PGStore) UpdateCell(ctx context.Context, table string, rowIdx, colIdx int, value string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		"SELECT cells FROM table_rows WHERE table_name = $1 AND row_num = $2 FOR UPDATE",
		table, rowIdx,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s row %d not found", table, rowIdx)
		}
		return fmt.Errorf("fetch %s row %d: %w", table, rowIdx, err)
	}

	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return fmt.Errorf("decode %s row %d: %w", table, rowIdx, err)
	}
	for colIdx >= len(cells) {
		cells = append(cells, "")
	}
	cells[colIdx] = value

	updated, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode %s row %d: %w", table, rowIdx, err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE table_rows SET cells = $3 WHERE table_name = $1 AND row_num = $2",
		table, rowIdx, updated,
	); err != nil {
		return fmt.Errorf("update %s row %d: %w", table, rowIdx, err)
	}
	return tx.Commit(ctx)
}

func (s *PGStore) UpdateRow(ctx context.Context, table string, rowIdx int, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row for %s: %w", table, err)
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE table_rows SET cells = $3 WHERE table_name = $1 AND row_num = $2",
		table, rowIdx, cells,
	)
	if err != nil {
		return fmt.Errorf("update %s row %d: %w", table, rowIdx, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s row %d not found", table, rowIdx)
	}
	return nil
}

func (s *PGStore) DeleteRow(ctx context.Context, table string, rowIdx int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"DELETE FROM table_rows WHERE table_name = $1 AND row_num = $2",
		table, rowIdx,
	)
	if err != nil {
		return fmt.Errorf("delete %s row %d: %w", table, rowIdx, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s row %d not found", table, rowIdx)
	}
	// Renumber so rows stay dense, preserving the sheet-like contract that
	// later rows shift up after a delete.
	if _, err := tx.Exec(ctx,
		"UPDATE table_rows SET row_num = row_num - 1 WHERE table_name = $1 AND row_num > $2",
		table, rowIdx,
	); err != nil {
		return fmt.Errorf("renumber %s after delete: %w", table, err)
	}
	return tx.Commit(ctx)
}

func (s *PGStore) EnsureTable(ctx context.Context, table string, header []string) error {
	cells, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header for %s: %w", table, err)
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO table_rows (table_name, row_num, cells)
		VALUES ($1, 0, $2)
		ON CONFLICT (table_name, row_num) DO NOTHING`,
		table, cells,
	); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}
	return nil
}

func (s *PGStore) ReplaceTable(ctx context.Context, table string, header []string, rows [][]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM table_rows WHERE table_name = $1", table); err != nil {
		return fmt.Errorf("clear table %s: %w", table, err)
	}

	write := func(rowNum int, cells []string) error {
		raw, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encode %s row %d: %w", table, rowNum, err)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO table_rows (table_name, row_num, cells) VALUES ($1, $2, $3)",
			table, rowNum, raw,
		)
		if err != nil {
			return fmt.Errorf("write %s row %d: %w", table, rowNum, err)
		}
		return nil
	}

	if err := write(0, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := write(i+1, r); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
