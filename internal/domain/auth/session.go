// Package auth issues and verifies the session tokens that key a shopper's
// cart and pending order.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for tokens that are malformed, expired or
	// signed with another key.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevoked is returned for tokens ended by logout.
	ErrRevoked = errors.New("session token revoked")
)

const (
	revokedCapacity = 100_000
	revokedFPR      = 0.001

	// DefaultRefreshInterval bounds how long a revocation made by another
	// process can go unnoticed.
	DefaultRefreshInterval = 5 * time.Second
)

// Session identifies the shopper a request belongs to.
type Session struct {
	ID        string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevocationStore persists the ids of revoked tokens.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Revoked lists tokens revoked at or after since.
	Revoked(ctx context.Context, since time.Time) ([]string, error)
}

// Manager issues HS256 session tokens and checks them against revocations.
// Unrevoked tokens are cleared by a bloom filter without a store lookup.
// The filter pulls revocations made by other processes sharing the store
// at most refresh apart, so a logout elsewhere is honored within refresh.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	refresh time.Duration
	revoked RevocationStore
	now     func() time.Time

	mu     sync.RWMutex
	filter *bloom.BloomFilter
	// synced is when the last load from the store started; zero before Warm.
	synced time.Time
}

// NewManager creates a Manager signing with secret. A non-positive refresh
// uses DefaultRefreshInterval.
func NewManager(secret []byte, ttl, refresh time.Duration, revoked RevocationStore) *Manager {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	return &Manager{
		secret:  secret,
		ttl:     ttl,
		refresh: refresh,
		revoked: revoked,
		now:     time.Now,
		filter:  bloom.NewWithEstimates(revokedCapacity, revokedFPR),
	}
}

// Warm loads every revocation that can still cover an unexpired token. It
// runs at startup; Verify falls back to it if it was skipped.
func (m *Manager) Warm(ctx context.Context) error {
	return m.load(ctx, m.now().Add(-m.ttl))
}

// sync pulls revocations recorded since the previous load once the filter
// is older than the refresh interval. The window overlaps the previous one
// by a full interval to absorb clock skew between processes.
func (m *Manager) sync(ctx context.Context) error {
	m.mu.RLock()
	synced := m.synced
	m.mu.RUnlock()

	if synced.IsZero() {
		return m.Warm(ctx)
	}
	if m.now().Sub(synced) < m.refresh {
		return nil
	}
	return m.load(ctx, synced.Add(-m.refresh))
}

func (m *Manager) load(ctx context.Context, since time.Time) error {
	started := m.now()
	ids, err := m.revoked.Revoked(ctx, since)
	if err != nil {
		return errors.Wrap(err, "list revoked tokens")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.filter.AddString(id)
	}
	if started.After(m.synced) {
		m.synced = started
	}
	return nil
}

// Issue starts a new session and returns its signed token.
func (m *Manager) Issue() (string, Session, error) {
	now := m.now().Truncate(time.Second)
	s := Session{
		ID:        uuid.NewString(),
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   s.ID,
		ID:        s.TokenID,
		IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, errors.Wrap(err, "sign token")
	}
	return signed, s, nil
}

// Verify parses token and returns its session.
func (m *Manager) Verify(ctx context.Context, token string) (*Session, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if err := m.sync(ctx); err != nil {
		return nil, errors.Wrap(err, "refresh revocations")
	}
	m.mu.RLock()
	maybe := m.filter.TestString(claims.ID)
	m.mu.RUnlock()
	if maybe {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, errors.Wrap(err, "check revocation")
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	s := &Session{ID: claims.Subject, TokenID: claims.ID}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Revoke ends s. Later Verify calls with its token fail with ErrRevoked.
func (m *Manager) Revoke(ctx context.Context, s Session) error {
	if err := m.revoked.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
		return errors.Wrap(err, "revoke token")
	}
	m.mu.Lock()
	m.filter.AddString(s.TokenID)
	m.mu.Unlock()
	return nil
}
