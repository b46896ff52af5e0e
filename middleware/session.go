package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/modboard/authcore"
)

// RotatedTokenHeader carries the re-signed session token back to the
// client whenever verification refreshed the embedded claims. Clients
// should replace their stored token when the header is present.
const RotatedTokenHeader = "X-Session-Token"

type sessionContextKey struct{}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*authcore.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*authcore.Session)
	return sess, ok
}

// ClientIP stamps the request's remote address into the context so the
// login rate limiter and audit trail can key on it.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(authcore.WithClientIP(r.Context(), host)))
	})
}

// RequireSession verifies the Authorization bearer token and stores the
// resulting session in the request context.
func RequireSession(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			rotated, sess, err := engine.VerifySession(r.Context(), tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if rotated != tokenStr {
				w.Header().Set(RotatedTokenHeader, rotated)
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
