package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/social"
)

// LikeHandler implements the like toggle across video, comment, and tweet
// targets, plus the caller's liked-target listing.
type LikeHandler struct {
	Toggles EdgeToggler
	Likes   LikeStore
}

// Toggle handles POST /api/v1/likes/toggle requests. The first call for a
// target likes it, the next call removes the like.
func (h LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	if h.Toggles == nil {
		logger.Error("like toggler unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "like services unavailable"})
		return
	}

	var req likeToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid like toggle payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.TargetType = strings.TrimSpace(strings.ToLower(req.TargetType))
	req.TargetID = strings.TrimSpace(req.TargetID)
	if req.TargetType == "" || req.TargetID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "targetType and targetId are required"})
		return
	}

	ctx, span := logging.StartSpan(ctx, "like.toggle")
	defer span.End()

	state, err := h.Toggles.Toggle(ctx, social.Edge{
		ActorID:    identity.ID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
	})
	if err != nil {
		logger.Warn("like toggle failed", "error", err, "targetType", req.TargetType, "targetId", req.TargetID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toggleResponse{State: state})
}

// Mine handles GET /api/v1/likes/mine requests, listing the caller's likes
// with an optional targetType filter.
func (h LikeHandler) Mine(w http.ResponseWriter, r *http.Request) {
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

	targetType := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("targetType")))
	switch targetType {
	case "", models.LikeTargetVideo, models.LikeTargetComment, models.LikeTargetTweet:
	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown targetType"})
		return
	}

	likes, err := h.Likes.ListForUser(ctx, identity.ID, targetType)
	if err != nil {
		logging.FromContext(ctx).Error("list likes", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	if likes == nil {
		likes = []models.Like{}
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]models.Like{"likes": likes})
}

type likeToggleRequest struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
}
