package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/social"
)

// SubscriptionHandler implements the subscribe toggle and channel statistics.
type SubscriptionHandler struct {
	Toggles       EdgeToggler
	Subscriptions SubscriptionStore
	// AllowSelfSubscribe layers the self-subscription policy on top of the
	// toggle primitive, which itself never forbids it.
	AllowSelfSubscribe bool
}

// Toggle handles POST /api/v1/subscriptions/toggle requests. The first call
// for a channel subscribes the caller, the next call unsubscribes them.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
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
		logger.Error("subscription toggler unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "subscription services unavailable"})
		return
	}

	var req subscriptionToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid subscription toggle payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.ChannelID = strings.TrimSpace(req.ChannelID)
	if req.ChannelID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "channelId is required"})
		return
	}

	if !h.AllowSelfSubscribe && req.ChannelID == identity.ID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "cannot subscribe to your own channel"})
		return
	}

	ctx, span := logging.StartSpan(ctx, "subscription.toggle")
	defer span.End()

	state, err := h.Toggles.Toggle(ctx, social.Edge{
		ActorID:    identity.ID,
		TargetType: "channel",
		TargetID:   req.ChannelID,
	})
	if err != nil {
		logger.Warn("subscription toggle failed", "error", err, "channelId", req.ChannelID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toggleResponse{State: state})
}

// ChannelCount handles GET /api/v1/subscriptions/channel requests, returning
// the subscriber count for the channel named in the query.
func (h SubscriptionHandler) ChannelCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	channelID := strings.TrimSpace(r.URL.Query().Get("channelId"))
	if channelID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "channelId is required"})
		return
	}

	count, err := h.Subscriptions.CountForChannel(ctx, channelID)
	if err != nil {
		logging.FromContext(ctx).Error("count channel subscribers", "error", err, "channelId", channelID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int64{"totalSubscribers": count})
}

// Mine handles GET /api/v1/subscriptions/mine requests, returning how many
// channels the caller subscribes to.
func (h SubscriptionHandler) Mine(w http.ResponseWriter, r *http.Request) {
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

	count, err := h.Subscriptions.CountForSubscriber(ctx, identity.ID)
	if err != nil {
		logging.FromContext(ctx).Error("count subscriptions", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int64{"totalSubscriptions": count})
}

type subscriptionToggleRequest struct {
	ChannelID string `json:"channelId"`
}

type toggleResponse struct {
	State social.State `json:"state"`
}
