// Package identity resolves the X-User-Id request header against the user
// store and attaches the resolved account to the request context.
package identity

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"BasketStore/internal/user"
	"BasketStore/pkg/kit"
)

// Header names the out-of-band user identifier.
const Header = "X-User-Id"

type ctxKey struct{}

func FromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(user.User)
	return u, ok
}

// WithUser is exported for handler tests that bypass the middleware.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// Require rejects requests whose X-User-Id header is missing, malformed or
// unknown, and stores the resolved user in the context otherwise.
func Require(users user.Store, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(Header)
			if raw == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing "+Header+" header", nil)
				return
			}

			id, err := strconv.Atoi(raw)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "malformed "+Header+" header", nil)
				return
			}

			u, found, err := users.FindByID(r.Context(), id)
			if err != nil {
				if log != nil {
					log.Error("user lookup failed", zap.Error(err), zap.Int("user_id", id))
				}
				kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
				return
			}
			if !found {
				kit.WriteError(w, r, http.StatusUnauthorized, "unknown user", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
