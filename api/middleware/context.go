package middleware

import (
	"net/http"

	"github.com/aureliajewels/storefront/internal/session"
)

type contextKey string

const ctxSession contextKey = "session"

// SessionFromRequest returns the session seeded by the Session middleware,
// or nil when the request carried no usable token.
func SessionFromRequest(r *http.Request) *session.Session {
	if r == nil {
		return nil
	}
	if sess, ok := r.Context().Value(ctxSession).(*session.Session); ok {
		return sess
	}
	return nil
}
