package auth

import (
	"context"
	"net/http"
)

// Authenticator types reported by /auth/type so clients know how to obtain an identity.
const (
	TypeNull     = "null"
	TypeJWT      = "jwt"
	TypeExternal = "external"
)

type AuthenticationProvider interface {
	AuthenticationMiddleware(next http.Handler) http.Handler
	AuthenticationRouter() http.Handler
	AuthenticationType() any
}

type AuthenticatorType struct {
	Type string `json:"type"`
}

type identityKey struct{}

// WithIdentity attaches the authenticated user to a request context.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Identity returns the user an authenticator attached, false if the request was never authenticated.
func Identity(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey{}).(string)
	return identity, ok && len(identity) > 0
}
