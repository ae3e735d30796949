package authz

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// Require rejects requests whose authenticated role may not perform action on
// object. It must run after auth.Middleware. In shadow mode denials are only
// logged.
func Require(a *Authorizer, log zerolog.Logger, object, action string, writeErr auth.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, err := auth.GetUserContext(r.Context())
			if err != nil {
				writeErr(w, err)
				return
			}

			subject := SubjectFromRole(uc.Role)
			allowed, enforced, err := a.Authorize(subject, object, action)
			if err != nil {
				writeErr(w, errors.Wrap(err, errors.ErrCodeInternal, "authorization check failed"))
				return
			}
			if !allowed {
				if enforced {
					writeErr(w, errors.Forbidden("role "+uc.Role+" may not "+action+" "+object))
					return
				}
				log.Warn().
					Str("subject", subject).
					Str("object", object).
					Str("action", action).
					Msg("Authorization denied in shadow mode")
			}

			next.ServeHTTP(w, r)
		})
	}
}
