package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/social"
)

// LikeRepository defines data access for like edges across video, comment,
// and tweet targets.
type LikeRepository interface {
	social.EdgeStore
	ListForUser(ctx context.Context, userID, targetType string) ([]models.Like, error)
}
