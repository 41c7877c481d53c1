package bytestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Default driver: pure-Go, CGo-free. Selectable alongside
	// github.com/mattn/go-sqlite3 (CGo) and github.com/lib/pq (Postgres,
	// for multi-instance deployments) via Driver in Config.
	_ "modernc.org/sqlite"
)

// Driver names a registered database/sql driver backing a SQLStore.
type Driver string

const (
	// DriverSQLite uses modernc.org/sqlite (pure Go, default).
	DriverSQLite Driver = "sqlite"
	// DriverSQLiteCGo uses github.com/mattn/go-sqlite3.
	DriverSQLiteCGo Driver = "sqlite3"
	// DriverPostgres uses github.com/lib/pq, for deployments sharing one
	// store across multiple runner instances (see the Background Task
	// Runner's single-owner claim, which relies on the same
	// InsertIfAbsent primitive).
	DriverPostgres Driver = "postgres"
)

// SQLStore is a Store backed by database/sql, giving the keyed byte store a
// durable implementation that survives process restarts. The schema is a
// single table per logical table name: (key TEXT PRIMARY KEY, value BLOB).
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// OpenSQLStore opens (and, for sqlite drivers, creates) a database at dsn
// using driver.
func OpenSQLStore(driver Driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open bytestore database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping bytestore database: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

func (s *SQLStore) ensureTable(ctx context.Context, table string) error {
	ident := quoteIdent(table)
	var ddl string
	switch s.driver {
	case DriverPostgres:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BYTEA NOT NULL)`, ident)
	default:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BLOB NOT NULL)`, ident)
	}
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *SQLStore) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = %s`, quoteIdent(table), s.placeholder(1)), key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *SQLStore) Put(ctx context.Context, table, key string, value []byte) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	query := s.upsertQuery(table)
	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

// InsertIfAbsent runs the check-then-insert inside a single transaction so
// the uniqueness constraint on key is the arbiter: if two transactions race,
// the database itself rejects the loser's INSERT, giving this the same
// exactly-one-success guarantee even across process instances (relevant for
// the Postgres driver backing a multi-instance deployment).
func (s *SQLStore) InsertIfAbsent(ctx context.Context, table, key string, value []byte) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (%s, %s)`,
		quoteIdent(table), s.placeholder(1), s.placeholder(2))
	if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
		return ErrKeyExists
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(ctx context.Context, table, key string) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE key = %s`, quoteIdent(table), s.placeholder(1)), key)
	return err
}

func (s *SQLStore) Scan(ctx context.Context, table, start, end string) ([]Entry, error) {
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}
	var rows *sql.Rows
	var err error
	if end == "" {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT key, value FROM %s WHERE key >= %s ORDER BY key ASC`, quoteIdent(table), s.placeholder(1)),
			start)
	} else {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT key, value FROM %s WHERE key >= %s AND key < %s ORDER BY key ASC`,
				quoteIdent(table), s.placeholder(1), s.placeholder(2)),
			start, end)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) upsertQuery(table string) string {
	ident := quoteIdent(table)
	if s.driver == DriverPostgres {
		return fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, ident)
	}
	return fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, ident)
}

// quoteIdent defends table names (internal, config-controlled identifiers,
// never user input) against accidental SQL syntax errors from punctuation.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
