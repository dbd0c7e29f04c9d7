package repositories

import (
	"context"

	"github.com/videotube/backend/internal/social"
)

// SubscriptionRepository defines data access for channel subscription edges.
type SubscriptionRepository interface {
	social.EdgeStore
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
}
