package auth

import (
	"net/http"
	"strings"

	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, err error)

// Middleware authenticates requests with a bearer token from the
// Authorization header, falling back to a "token" cookie. Requests without a
// valid token are rejected with 401.
func Middleware(issuer *TokenIssuer, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeErr(w, errors.New(errors.ErrCodeUnauthorized, "missing bearer token"))
				return
			}

			uc, err := issuer.Parse(tokenStr)
			if err != nil {
				writeErr(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), uc)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// OptionalMiddleware attaches the user when a valid token is present and
// otherwise passes the request through anonymously. An invalid token is
// still rejected.
func OptionalMiddleware(issuer *TokenIssuer, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			uc, err := issuer.Parse(tokenStr)
			if err != nil {
				writeErr(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), uc)))
		})
	}
}
