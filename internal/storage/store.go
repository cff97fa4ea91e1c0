package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"catatan/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by FetchOne when the query matched nothing.
var ErrNotFound = errors.New("not found")

// Row is one result row keyed by column name. Values are plain Go values as
// returned by the driver: int64, float64, string or nil.
type Row map[string]any

// Store executes parameterized statements against a single SQLite file.
// Every call acquires its own connection and releases it before returning;
// idle connections are not kept between calls.
type Store struct {
	db   *sql.DB
	path string
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxIdleConns(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

func dsn(path string) string {
	return path + "?_pragma=busy_timeout(10000)"
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert runs an INSERT and returns the id assigned by the store.
// A failed statement is rolled back.
func (s *Store) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// Exec runs an UPDATE or DELETE and reports whether at least one row was affected.
// A failed statement is rolled back.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (bool, error) {
	var affected int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("exec: %w", err)
	}
	return affected > 0, nil
}

// Fetch returns every row matched by query.
func (s *Store) Fetch(ctx context.Context, query string, args ...any) ([]Row, error) {
	var out []Row
	_, err := s.scan(ctx, query, args, func(cols []string, vals []any) bool {
		out = append(out, toRow(cols, vals))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return out, nil
}

// FetchOne returns the first row matched by query, or ErrNotFound.
func (s *Store) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	var out Row
	_, err := s.scan(ctx, query, args, func(cols []string, vals []any) bool {
		out = toRow(cols, vals)
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// FetchTable returns the rows as a table with named columns. On error the
// returned table is empty.
func (s *Store) FetchTable(ctx context.Context, query string, args ...any) (core.Table, error) {
	rows := [][]any{}
	cols, err := s.scan(ctx, query, args, func(_ []string, vals []any) bool {
		rows = append(rows, vals)
		return true
	})
	if err != nil {
		return core.Table{Columns: []string{}, Rows: [][]any{}}, fmt.Errorf("fetch table: %w", err)
	}
	return core.Table{Columns: cols, Rows: rows}, nil
}

func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.WarnContext(ctx, "Rollback failed", "error", rbErr)
			}
			return err
		}
		return tx.Commit()
	})
}

// scan calls each for every row until it returns false and returns the column names.
func (s *Store) scan(ctx context.Context, query string, args []any, each func(cols []string, vals []any) bool) ([]string, error) {
	var cols []string
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err = rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					vals[i] = string(b)
				}
			}
			if !each(cols, vals) {
				break
			}
		}
		return rows.Err()
	})
	return cols, err
}

func toRow(cols []string, vals []any) Row {
	row := make(Row, len(cols))
	for i, c := range cols {
		row[c] = vals[i]
	}
	return row
}
