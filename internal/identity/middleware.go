package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vovarama1992/homecare-engage/internal/util"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// RequireAdmin rejects requests without a valid bearer token and stores the
// verified Identity on the request context.
func RequireAdmin(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				util.WriteError(w, http.StatusUnauthorized, ErrNoToken.Error())
				return
			}
			id, err := v.Verify(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, ErrUnavailable):
				slog.Error("identity verification unavailable", "path", r.URL.Path, "err", err)
				util.WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			case errors.Is(err, ErrNoToken):
				util.WriteError(w, http.StatusUnauthorized, ErrNoToken.Error())
				return
			default:
				slog.Warn("token rejected", "path", r.URL.Path, "err", err)
				util.WriteError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
