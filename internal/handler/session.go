package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/surplus-storefront/internal/domain/auth"
	"github.com/xenking/surplus-storefront/pkg/httpmiddleware"
)

type sessionKey struct{}

func withSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey{}).(*auth.Session)
	return s
}

// requireSession rejects requests without a valid session token.
func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := httpmiddleware.BearerToken(r)
		if token == "" {
			httpmiddleware.WriteError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		s, err := h.sessions.Verify(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(withSession(r.Context(), s)))
	})
}

// OpenSession handles POST /api/session.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	token, s, err := h.sessions.Issue()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessionStore.Open(r.Context(), s, token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("token", func(e *jx.Encoder) { e.Str(token) })
			e.Field("sessionId", func(e *jx.Encoder) { e.Str(s.ID) })
			e.Field("expiresAt", func(e *jx.Encoder) { e.Str(s.ExpiresAt.UTC().Format(time.RFC3339)) })
		})
	})
}

// CloseSession handles DELETE /api/session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	if err := h.sessions.Revoke(r.Context(), *s); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessionStore.Close(r.Context(), s.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
