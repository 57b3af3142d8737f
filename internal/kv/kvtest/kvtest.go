// Package kvtest holds the behavior every kv.Store implementation shares.
package kvtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/surplus-storefront/internal/kv"
)

// Run exercises the kv.Store contract. newStore must return an empty store
// on every call.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "s1", "cart")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("put get delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "s1", "cart", []byte(`[1]`)))
		require.NoError(t, s.Put(ctx, "s1", "cart", []byte(`[2]`)))

		got, err := s.Get(ctx, "s1", "cart")
		require.NoError(t, err)
		assert.Equal(t, `[2]`, string(got))

		_, err = s.Get(ctx, "s2", "cart")
		require.ErrorIs(t, err, kv.ErrNotFound, "namespaces are isolated")

		require.NoError(t, s.Delete(ctx, "s1", "cart"))
		require.NoError(t, s.Delete(ctx, "s1", "cart"))
		_, err = s.Get(ctx, "s1", "cart")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, "s1", "n", func(cur []byte, found bool) ([]byte, error) {
			assert.False(t, found)
			assert.Empty(t, cur)
			return []byte("a"), nil
		}))
		require.NoError(t, s.Update(ctx, "s1", "n", func(cur []byte, found bool) ([]byte, error) {
			assert.True(t, found)
			return append(cur, 'b'), nil
		}))
		got, err := s.Get(ctx, "s1", "n")
		require.NoError(t, err)
		assert.Equal(t, "ab", string(got))
	})

	t.Run("update error aborts", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "s1", "n", []byte("keep")))
		boom := errors.New("boom")
		err := s.Update(ctx, "s1", "n", func([]byte, bool) ([]byte, error) {
			return []byte("lost"), boom
		})
		require.ErrorIs(t, err, boom)
		got, err := s.Get(ctx, "s1", "n")
		require.NoError(t, err)
		assert.Equal(t, "keep", string(got))
	})

	t.Run("update nil deletes", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "s1", "n", []byte("x")))
		require.NoError(t, s.Update(ctx, "s1", "n", func([]byte, bool) ([]byte, error) {
			return nil, nil
		}))
		_, err := s.Get(ctx, "s1", "n")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("keys", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "revoked", "b", []byte("1")))
		require.NoError(t, s.Put(ctx, "revoked", "a", []byte("1")))
		require.NoError(t, s.Put(ctx, "s1", "cart", []byte("[]")))

		keys, err := s.Keys(ctx, "revoked", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)

		keys, err = s.Keys(ctx, "revoked", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("concurrent updates serialize", func(t *testing.T) {
		s := newStore(t)
		const workers = 8
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, "s1", "counter", func(cur []byte, _ bool) ([]byte, error) {
					return append(cur, 'x'), nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		got, err := s.Get(ctx, "s1", "counter")
		require.NoError(t, err)
		assert.Len(t, got, workers)
	})
}
