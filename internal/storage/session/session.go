// Package session maps a shopper's session state onto a kv.Store: one
// namespace per session holding the cart, the pending order, and the token
// that opened it.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/surplus-storefront/internal/domain/auth"
	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/kv"
)

// Keys within a session namespace.
const (
	KeyCart      = "cart"
	KeyLastOrder = "lastOrder"
	KeyToken     = "token"
	KeyUser      = "user"
)

// RevokedNamespace holds revoked token ids, valued by their expiry.
const RevokedNamespace = "revoked"

var (
	_ cart.Repository      = (*Store)(nil)
	_ order.Repository     = (*Store)(nil)
	_ auth.RevocationStore = (*Store)(nil)
)

// Store is the typed view of per-session state. Cart lists are normalized
// on every read and write; unreadable values are logged and treated as
// absent.
type Store struct {
	kv kv.Store
}

// New creates a Store over s.
func New(s kv.Store) *Store {
	return &Store{kv: s}
}

func namespace(session string) string {
	return "session:" + session
}

// Items returns the normalized cart of session.
func (s *Store) Items(ctx context.Context, session string) ([]cart.LineItem, error) {
	data, err := s.kv.Get(ctx, namespace(session), KeyCart)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get cart")
	}
	return decodeCart(ctx, data), nil
}

// Update applies fn to the cart of session atomically and stores the
// normalized result. An empty result removes the key.
func (s *Store) Update(ctx context.Context, session string, fn func([]cart.LineItem) ([]cart.LineItem, error)) ([]cart.LineItem, error) {
	var out []cart.LineItem
	err := s.kv.Update(ctx, namespace(session), KeyCart, func(current []byte, found bool) ([]byte, error) {
		var items []cart.LineItem
		if found {
			items = decodeCart(ctx, current)
		}
		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		out = cart.Canonical(next)
		if len(out) == 0 {
			return nil, nil
		}
		return cart.EncodeItems(out), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeCart(ctx context.Context, data []byte) []cart.LineItem {
	raws, err := cart.DecodeItems(data)
	if err != nil {
		zctx.From(ctx).Warn("Discarding unreadable cart", zap.Error(err))
		return nil
	}
	return cart.NormalizeAll(raws)
}

// Pending returns the order awaiting acknowledgement and whether it was
// stored with totals.
func (s *Store) Pending(ctx context.Context, session string) (*order.Snapshot, bool, error) {
	data, err := s.kv.Get(ctx, namespace(session), KeyLastOrder)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, false, order.ErrNoPendingOrder
		}
		return nil, false, errors.Wrap(err, "get order")
	}
	snap, priced, err := order.DecodeSnapshot(data)
	if err != nil {
		zctx.From(ctx).Warn("Discarding unreadable order", zap.Error(err))
		return nil, false, order.ErrNoPendingOrder
	}
	return snap, priced, nil
}

// SavePending replaces the pending order.
func (s *Store) SavePending(ctx context.Context, session string, snap *order.Snapshot) error {
	if err := s.kv.Put(ctx, namespace(session), KeyLastOrder, order.EncodeSnapshot(snap)); err != nil {
		return errors.Wrap(err, "put order")
	}
	return nil
}

// DeletePending removes the pending order.
func (s *Store) DeletePending(ctx context.Context, session string) error {
	if err := s.kv.Delete(ctx, namespace(session), KeyLastOrder); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}

// Open records the token and guest user of a new session.
func (s *Store) Open(ctx context.Context, sess auth.Session, token string) error {
	ns := namespace(sess.ID)
	if err := s.kv.Put(ctx, ns, KeyToken, []byte(token)); err != nil {
		return errors.Wrap(err, "put token")
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(sess.ID) })
		e.Field("guest", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(sess.IssuedAt.UTC().Format(time.RFC3339)) })
	})
	if err := s.kv.Put(ctx, ns, KeyUser, e.Bytes()); err != nil {
		return errors.Wrap(err, "put user")
	}
	return nil
}

// Close forgets the token and user of a session. The cart and pending order
// are left for the store's retention to collect.
func (s *Store) Close(ctx context.Context, sessionID string) error {
	ns := namespace(sessionID)
	for _, key := range []string{KeyToken, KeyUser} {
		if err := s.kv.Delete(ctx, ns, key); err != nil {
			return errors.Wrapf(err, "delete %s", key)
		}
	}
	return nil
}

// Revoke marks tokenID revoked until it would have expired anyway.
func (s *Store) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	value := []byte(until.UTC().Format(time.RFC3339))
	if err := s.kv.Put(ctx, RevokedNamespace, tokenID, value); err != nil {
		return errors.Wrap(err, "put revocation")
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.kv.Get(ctx, RevokedNamespace, tokenID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	default:
		return false, errors.Wrap(err, "get revocation")
	}
}

// Revoked lists tokens revoked at or after since.
func (s *Store) Revoked(ctx context.Context, since time.Time) ([]string, error) {
	ids, err := s.kv.Keys(ctx, RevokedNamespace, since)
	if err != nil {
		return nil, errors.Wrap(err, "list revocations")
	}
	return ids, nil
}
