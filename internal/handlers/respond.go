package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/social"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps service errors onto the wire taxonomy. Internal failures
// are logged with their cause but never leak detail to the caller.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, social.ErrInvalidTarget), errors.Is(err, auth.ErrPasswordPolicy):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenRevoked):
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	case errors.Is(err, auth.ErrForbidden):
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "operation not allowed"})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, repositories.ErrConflict):
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "already exists"})
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
