package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/models"
)

// Cookie names used to carry session tokens.
const (
	AccessCookieName  = "videotube_access"
	RefreshCookieName = "videotube_refresh"
)

// AccessValidator verifies a bearer access token without store access.
type AccessValidator interface {
	ValidateAccessToken(token string) (Claims, error)
}

// IdentityStore loads the user record an authenticated request acts as.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionGate authenticates inbound requests. It extracts a bearer token from
// the access cookie or the Authorization header, validates it, and resolves
// the minimal identity projection. It never mutates token or user state.
type SessionGate struct {
	Tokens AccessValidator
	Users  IdentityStore
}

// Authenticate resolves the identity asserted by the request's access token.
// Token defects surface as ErrTokenMalformed or ErrTokenExpired; store
// failures are passed through wrapped for the caller to classify.
func (g SessionGate) Authenticate(r *http.Request) (models.Identity, error) {
	if g.Tokens == nil || g.Users == nil {
		return models.Identity{}, fmt.Errorf("session gate misconfigured")
	}

	token := BearerToken(r)
	if token == "" {
		return models.Identity{}, ErrTokenMalformed
	}

	claims, err := g.Tokens.ValidateAccessToken(token)
	if err != nil {
		return models.Identity{}, err
	}

	user, err := g.Users.FindByID(r.Context(), claims.Subject)
	if err != nil {
		return models.Identity{}, fmt.Errorf("load identity: %w", err)
	}

	return user.Identity(), nil
}

// BearerToken locates the access token on a request, preferring the session
// cookie and falling back to a standard Authorization header.
func BearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

type identityKey struct{}

// WithIdentity stores the authenticated identity on the context for downstream
// handlers.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext retrieves the identity attached by the session gate.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}
