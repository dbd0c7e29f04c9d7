package handlers

import (
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// RequireAuth guards a handler behind the session gate. On success the
// verified identity is attached to the request context; any token defect or
// unknown subject yields 401 before the handler runs.
func RequireAuth(gate Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if gate == nil {
			logging.FromContext(ctx).Error("session gate unavailable")
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
			return
		}

		identity, err := gate.Authenticate(r)
		if err != nil {
			if isUnauthenticated(err) {
				respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			logging.FromContext(ctx).Error("authenticate request", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to authenticate request"})
			return
		}

		next(w, r.WithContext(auth.WithIdentity(ctx, identity)))
	}
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, auth.ErrTokenMalformed) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrTokenRevoked) ||
		errors.Is(err, auth.ErrInvalidCredentials) ||
		errors.Is(err, repositories.ErrNotFound)
}

// identityFromRequest returns the identity attached by RequireAuth.
func identityFromRequest(r *http.Request) (models.Identity, bool) {
	return auth.IdentityFromContext(r.Context())
}
