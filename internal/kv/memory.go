package kv

import (
	"context"
	"slices"
	"sync"
	"time"
)

var _ Store = (*Memory)(nil)

type entry struct {
	value     []byte
	updatedAt time.Time
}

// Memory is a Store kept in process memory. It is used for tests and for
// running without a database.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]entry
	now  func() time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]entry),
		now:  time.Now,
	}
}

func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.value), nil
}

func (m *Memory) Put(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(namespace, key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[namespace], key)
	return nil
}

// Update holds the store lock while fn runs, so fn must not call back into
// the store.
func (m *Memory) Update(ctx context.Context, namespace, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, found := m.data[namespace][key]
	next, err := fn(slices.Clone(e.value), found)
	if err != nil {
		return err
	}
	if next == nil {
		delete(m.data[namespace], key)
		return nil
	}
	m.put(namespace, key, next)
	return nil
}

func (m *Memory) Keys(_ context.Context, namespace string, since time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k, e := range m.data[namespace] {
		if !e.updatedAt.Before(since) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) put(namespace, key string, value []byte) {
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]entry)
		m.data[namespace] = ns
	}
	ns[key] = entry{value: slices.Clone(value), updatedAt: m.now()}
}
