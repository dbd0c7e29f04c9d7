package handlers

import (
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// UserHandler serves the current user's identity and profile media updates.
type UserHandler struct {
	Users UserStore
	Media MediaStore
}

// Me handles GET /api/v1/users/me requests, returning the identity attached
// by the session gate.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := identityFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Identity{"user": identity})
}

// UpdateAvatar handles PUT /api/v1/users/me/avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", func(userID, location string) error {
		return h.Users.UpdateAvatar(r.Context(), userID, location)
	})
}

// UpdateCover handles PUT /api/v1/users/me/cover requests.
func (h UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", func(userID, location string) error {
		return h.Users.UpdateCoverImage(r.Context(), userID, location)
	})
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix string, persist func(userID, location string) error) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := identityFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if h.Users == nil || h.Media == nil {
		logger.Error("profile media dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "media services unavailable"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid media payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		logger.Warn("missing media file", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": field + " image is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := path.Join(prefix, uuid.NewString()+path.Ext(header.Filename))
	location, err := h.Media.Save(ctx, key, contentType, file)
	if err != nil {
		logger.Error("media upload failed", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store image"})
		return
	}

	if err := persist(identity.ID, location); err != nil {
		logger.Error("media reference update failed", "field", field, "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"location": location})
}
