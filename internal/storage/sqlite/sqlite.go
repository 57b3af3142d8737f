// Package sqlite implements kv.Store on a local SQLite file, for running the
// storefront without a database server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xenking/surplus-storefront/internal/kv"
)

//go:embed schema.sql
var schemaSQL string

const (
	getValueSQL = `SELECT value FROM kv WHERE namespace = ? AND key = ?`

	putValueSQL = `INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	deleteValueSQL = `DELETE FROM kv WHERE namespace = ? AND key = ?`

	listKeysSQL = `SELECT key FROM kv WHERE namespace = ? AND updated_at >= ? ORDER BY key`
)

var _ kv.Store = (*Store)(nil)

// Store is a kv.Store on SQLite. All access goes through a single
// connection, so updates never interleave.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	if err := s.db.QueryRowContext(ctx, getValueSQL, namespace, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, namespace, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, putValueSQL, namespace, key, value, s.now().UnixNano()); err != nil {
		return fmt.Errorf("putting %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteValueSQL, namespace, key); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Update runs fn inside a transaction on the single connection.
func (s *Store) Update(ctx context.Context, namespace, key string, fn kv.UpdateFunc) (rerr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rerr != nil {
			_ = tx.Rollback()
		}
	}()

	var current []byte
	found := true
	if err := tx.QueryRowContext(ctx, getValueSQL, namespace, key).Scan(&current); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("getting %s/%s: %w", namespace, key, err)
		}
		found = false
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if next == nil {
		_, err = tx.ExecContext(ctx, deleteValueSQL, namespace, key)
	} else {
		_, err = tx.ExecContext(ctx, putValueSQL, namespace, key, next, s.now().UnixNano())
	}
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", namespace, key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, namespace string, since time.Time) ([]string, error) {
	var cutoff int64
	if !since.IsZero() {
		cutoff = since.UnixNano()
	}
	rows, err := s.db.QueryContext(ctx, listKeysSQL, namespace, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", namespace, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("listing %s: %w", namespace, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", namespace, err)
	}
	return keys, nil
}
