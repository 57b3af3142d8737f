package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/surplus-storefront/internal/kv"
)

const (
	getValueSQL = `SELECT value FROM kv WHERE namespace = $1 AND key = $2`

	putValueSQL = `INSERT INTO kv (namespace, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	deleteValueSQL = `DELETE FROM kv WHERE namespace = $1 AND key = $2`

	// Absent keys have no row to lock, so updates serialize on an advisory
	// lock derived from the key instead.
	lockKeySQL = `SELECT pg_advisory_xact_lock(hashtextextended($1 || '/' || $2, 0))`

	listKeysSQL = `SELECT key FROM kv WHERE namespace = $1 AND updated_at >= $2 ORDER BY key`
)

var _ kv.Store = (*KVStore)(nil)

// KVStore implements kv.Store on the kv table.
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore returns a KVStore that uses the given pool.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

func (s *KVStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	if err := s.pool.QueryRow(ctx, getValueSQL, namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *KVStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, putValueSQL, namespace, key, value); err != nil {
		return fmt.Errorf("putting %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.pool.Exec(ctx, deleteValueSQL, namespace, key); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Update runs fn inside a transaction holding the key's advisory lock.
func (s *KVStore) Update(ctx context.Context, namespace, key string, fn kv.UpdateFunc) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockKeySQL, namespace, key); err != nil {
			return fmt.Errorf("locking %s/%s: %w", namespace, key, err)
		}

		var current []byte
		found := true
		if err := tx.QueryRow(ctx, getValueSQL, namespace, key).Scan(&current); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("getting %s/%s: %w", namespace, key, err)
			}
			found = false
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		if next == nil {
			if _, err := tx.Exec(ctx, deleteValueSQL, namespace, key); err != nil {
				return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
			}
			return nil
		}
		if _, err := tx.Exec(ctx, putValueSQL, namespace, key, next); err != nil {
			return fmt.Errorf("putting %s/%s: %w", namespace, key, err)
		}
		return nil
	})
}

func (s *KVStore) Keys(ctx context.Context, namespace string, since time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, listKeysSQL, namespace, since)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", namespace, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", namespace, err)
	}
	return keys, nil
}
