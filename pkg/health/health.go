// Package health serves the /livez and /readyz endpoints of the storefront.
//
// Checks run in the background on a ticker and the endpoint handlers only read
// their last outcome. A check turns unhealthy after failuresToTrip failures
// in a row and healthy again on its next success.
package health

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports a problem with a dependency, or nil.
type CheckFunc func(ctx context.Context) error

// Kind selects the endpoint a check reports on.
type Kind int

const (
	// Liveness checks fail /livez; the process should be restarted.
	Liveness Kind = iota
	// Readiness checks fail /readyz; traffic should be routed elsewhere.
	Readiness
)

const failuresToTrip = 3

type outcome struct {
	healthy bool
	err     error
}

type check struct {
	name    string
	kind    Kind
	timeout time.Duration
	fn      CheckFunc

	last atomic.Pointer[outcome]
	// fails is owned by the goroutine running the check.
	fails int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	if err == nil {
		c.fails = 0
		c.last.Store(&outcome{healthy: true})
		return
	}
	c.fails++
	prev := c.last.Load()
	c.last.Store(&outcome{healthy: prev.healthy && c.fails < failuresToTrip, err: err})
}

// status is "ok" for a healthy check, otherwise the reason it is not.
func (c *check) status() (string, bool) {
	o := c.last.Load()
	switch {
	case o.healthy:
		return "ok", true
	case o.err != nil:
		return o.err.Error(), false
	default:
		return "unhealthy", false
	}
}

// Health holds the registered checks and the serving state of the process.
type Health struct {
	serving atomic.Bool

	mu     sync.RWMutex
	checks []*check
	info   map[string]string
	cancel context.CancelFunc
}

// New creates a Health that is not serving until SetReady(true).
func New() *Health {
	return &Health{info: make(map[string]string)}
}

// Add registers a check. It is healthy until it has failed enough times.
func (h *Health) Add(kind Kind, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: kind, timeout: timeout, fn: fn}
	c.last.Store(&outcome{healthy: true})

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// Describe records a fact about the running service, such as the storage
// driver, reported by /readyz.
func (h *Health) Describe(key, value string) {
	h.mu.Lock()
	h.info[key] = value
	h.mu.Unlock()
}

// Start runs every registered check now and then once per interval until
// ctx is done or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := slices.Clone(h.checks)
	h.mu.Unlock()

	for _, c := range checks {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				c.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if ctx.Err() != nil {
						return
					}
				}
			}
		}()
	}
}

// Stop ends the background checks.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks whether the server accepts traffic. It is cleared first
// thing on shutdown so load balancers drain the instance.
func (h *Health) SetReady(ready bool) {
	h.serving.Store(ready)
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	statuses, ok := h.collect(Liveness)
	writeResponse(w, ok, statuses, nil)
}

// ReadyEndpoint serves /readyz. Besides check results it reports the facts
// recorded with Describe.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	statuses, ok := h.collect(Readiness)
	if !h.serving.Load() {
		statuses["serving"] = "not accepting traffic"
		ok = false
	}

	h.mu.RLock()
	info := maps.Clone(h.info)
	h.mu.RUnlock()

	writeResponse(w, ok, statuses, info)
}

func (h *Health) collect(kind Kind) (map[string]string, bool) {
	h.mu.RLock()
	checks := slices.Clone(h.checks)
	h.mu.RUnlock()

	statuses := make(map[string]string)
	ok := true
	for _, c := range checks {
		if c.kind != kind {
			continue
		}
		s, healthy := c.status()
		statuses[c.name] = s
		ok = ok && healthy
	}
	return statuses, ok
}

func writeResponse(w http.ResponseWriter, ok bool, checks, info map[string]string) {
	status, text := http.StatusOK, "ok"
	if !ok {
		status, text = http.StatusServiceUnavailable, "unhealthy"
	}

	sortedObj := func(e *jx.Encoder, m map[string]string) {
		e.Obj(func(e *jx.Encoder) {
			for _, k := range slices.Sorted(maps.Keys(m)) {
				e.Field(k, func(e *jx.Encoder) { e.Str(m[k]) })
			}
		})
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(text) })
		if len(checks) > 0 {
			e.Field("checks", func(e *jx.Encoder) { sortedObj(e, checks) })
		}
		if len(info) > 0 {
			e.Field("info", func(e *jx.Encoder) { sortedObj(e, info) })
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
