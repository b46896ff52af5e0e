package middleware

import (
	"errors"
	"net/http"

	"github.com/modboard/authcore"
)

// RequireFresh re-checks the caller against authoritative storage before
// admitting the request. The cached session token is never trusted for
// the role decision; a deactivated account or a revoked role is denied
// here even while its token still verifies. Must run inside
// RequireSession.
func RequireFresh(engine *authcore.Engine, roles ...authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if _, err := engine.RequireFresh(r.Context(), sess.ID, roles...); err != nil {
				http.Error(w, http.StatusText(guardStatus(err)), guardStatus(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func guardStatus(err error) int {
	switch {
	case errors.Is(err, authcore.ErrForbidden), errors.Is(err, authcore.ErrAccountDeactivated):
		return http.StatusForbidden
	case errors.Is(err, authcore.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}
