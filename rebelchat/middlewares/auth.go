package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"rebelchat/rebelchat/services/tokens"
	httputils "rebelchat/rebelchat/utils/http"
)

type contextKey string

const IdentityKey contextKey = "identity"

const (
	MsgTokenRequired = "Access token required"
	MsgTokenInvalid  = "Invalid or expired token"
)

var errNoToken = errors.New("no bearer token")

// IdentityFromContext returns the user attached by the auth middlewares.
func IdentityFromContext(ctx context.Context) (*tokens.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*tokens.Identity)
	return id, ok && id != nil
}

func WithIdentity(ctx context.Context, id *tokens.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// bearerToken returns the second space-separated word of the Authorization
// header. The scheme is not checked, so "Token x" is read as token "x" and
// fails verification instead of counting as missing.
func bearerToken(r *http.Request) (string, error) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) < 2 || parts[1] == "" {
		return "", errNoToken
	}
	return parts[1], nil
}

// AuthMiddleware rejects requests without a valid app token: 401 when the
// bearer token is missing, 403 when it does not verify.
func AuthMiddleware(tm *tokens.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := bearerToken(r)
			if err != nil {
				httputils.WriteError(w, http.StatusUnauthorized, MsgTokenRequired)
				return
			}
			id, err := tm.Verify(tokenStr)
			if err != nil {
				httputils.WriteError(w, http.StatusForbidden, MsgTokenInvalid)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// everything else through untouched.
func OptionalAuth(tm *tokens.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr, err := bearerToken(r); err == nil {
				if id, err := tm.Verify(tokenStr); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
