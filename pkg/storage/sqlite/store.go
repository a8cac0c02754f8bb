// Package sqlite stores the directory in a single-file SQLite database
// through database/sql and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gstdirectory/pkg/directory"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS gst_records (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	cities  TEXT NOT NULL,
	traders TEXT NOT NULL,
	gst     TEXT NOT NULL DEFAULT 'NO GST',
	UNIQUE (cities, traders)
);`

type Store struct {
	db *sql.DB
}

var _ directory.Store = (*Store)(nil)

// Open opens (creating when needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, directory.NewStorageError("mkdir", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, directory.NewStorageError("open", err)
	}
	// one writer; also keeps a ":memory:" database alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, directory.NewStorageError("migrate", fmt.Errorf("apply schema: %w", err))
	}
	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context) ([]directory.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cities, traders, gst FROM gst_records ORDER BY cities, traders`)
	if err != nil {
		return nil, directory.NewStorageError("list", err)
	}
	defer rows.Close()

	records := make([]directory.Record, 0)
	for rows.Next() {
		var r directory.Record
		if err := rows.Scan(&r.City, &r.Trader, &r.GST); err != nil {
			return nil, directory.NewStorageError("scan", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, directory.NewStorageError("list", err)
	}
	return records, nil
}

func (s *Store) Insert(ctx context.Context, rec directory.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gst_records (cities, traders, gst) VALUES (?, ?, ?)`,
		rec.City, rec.Trader, rec.GST)
	if isUniqueViolation(err) {
		return directory.ErrDuplicateKey
	}
	return directory.NewStorageError("insert", err)
}

func (s *Store) Update(ctx context.Context, old directory.Key, rec directory.Record) (directory.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return directory.Record{}, directory.NewStorageError("update", err)
	}
	defer tx.Rollback()

	prev, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT cities, traders, gst FROM gst_records WHERE cities = ? AND traders = ?`,
		old.City, old.Trader), "update")
	if err != nil {
		return directory.Record{}, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE gst_records SET cities = ?, traders = ?, gst = ? WHERE cities = ? AND traders = ?`,
		rec.City, rec.Trader, rec.GST, old.City, old.Trader)
	if isUniqueViolation(err) {
		return directory.Record{}, directory.ErrDuplicateKey
	}
	if err != nil {
		return directory.Record{}, directory.NewStorageError("update", err)
	}
	if err := tx.Commit(); err != nil {
		return directory.Record{}, directory.NewStorageError("update", err)
	}
	return prev, nil
}

func (s *Store) Delete(ctx context.Context, key directory.Key) (directory.Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx,
		`DELETE FROM gst_records WHERE cities = ? AND traders = ? RETURNING cities, traders, gst`,
		key.City, key.Trader), "delete")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// scanRecord reads one record, mapping an empty result to ErrNotFound.
func scanRecord(row *sql.Row, op string) (directory.Record, error) {
	var r directory.Record
	err := row.Scan(&r.City, &r.Trader, &r.GST)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.Record{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Record{}, directory.NewStorageError(op, err)
	}
	return r, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// primary result code only, when extended codes are off
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
