package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/prodstore/prodstore/internal/record"
)

const productsSchema = `
CREATE TABLE IF NOT EXISTS products (
	seq      INTEGER PRIMARY KEY,
	id       TEXT NOT NULL,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	price    REAL NOT NULL,
	rating   REAL NOT NULL,
	stock    INTEGER NOT NULL,
	sales    INTEGER NOT NULL
);`

func openSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("snapshot: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(productsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: init table: %w", err)
	}
	return db, nil
}

// ExportSQLite replaces the products table in the database at path with rs.
// Row order is preserved.
func ExportSQLite(ctx context.Context, path string, rs []record.Record) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot: begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		tx.Rollback()
		return fmt.Errorf("snapshot: truncate: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO products (seq, id, name, category, price, rating, stock, sales) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range rs {
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Name, r.Category, r.Price, r.Rating, r.Stock, r.Sales); err != nil {
			tx.Rollback()
			return fmt.Errorf("snapshot: insert %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot: commit: %w", err)
	}
	return nil
}

// ImportSQLite reads every product row from the database at path in the
// order it was exported. Rows are not validated.
func ImportSQLite(ctx context.Context, path string) ([]record.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT id, name, category, price, rating, stock, sales FROM products ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("snapshot: query: %w", err)
	}
	defer rows.Close()

	var rs []record.Record
	for rows.Next() {
		var r record.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Price, &r.Rating, &r.Stock, &r.Sales); err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: rows: %w", err)
	}
	return rs, nil
}
