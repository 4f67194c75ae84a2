package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hvichare/go-estate/internal/token"
)

// AccessTokenCookie is the http-only cookie carrying the session token.
const AccessTokenCookie = "access_token"

type key string

const userIDKey key = "user_id"

// GetUserID returns the authenticated identity attached by RequireAuth.
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID attaches an identity to the context. Exposed for tests that
// exercise protected handlers without the full middleware chain.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// RequireAuth is the session guard placed before every protected route.
// A missing cookie is 401; a token that fails verification (bad signature
// or expired) is 403. On success the verified subject is attached to the
// request context. The guard never mutates state.
func RequireAuth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				writeAuthError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := tokens.Verify(cookie.Value)
			if err != nil {
				// Expired and malformed tokens get the same response;
				// distinguishing them leaks nothing useful to a client.
				writeAuthError(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := WithUserID(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError mirrors the handlers package error body without importing
// it (handlers import this package for GetUserID).
func writeAuthError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"success":false,"statusCode":%d,"message":%q}`+"\n", status, message)
}
