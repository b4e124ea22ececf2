// Package middleware authenticates API requests.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity is the caller a bearer token was issued to.
type Identity struct {
	UserID    uuid.UUID
	Anonymous bool
}

// Authenticator resolves a bearer token to an Identity.
type Authenticator interface {
	Authenticate(token string) (Identity, error)
}

// AuthenticatorFunc lets a plain function serve as an Authenticator.
type AuthenticatorFunc func(token string) (Identity, error)

// Authenticate calls f(token).
func (f AuthenticatorFunc) Authenticate(token string) (Identity, error) {
	return f(token)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the resolved Identity on the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}
			id, err := auth.Authenticate(token)
			if err != nil || id.UserID == uuid.Nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Unauthorized"})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the Identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
