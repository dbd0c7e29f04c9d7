package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// UserRepository defines the data access contract for users. Mutations are
// column-scoped: a password change never rewrites profile fields and session
// updates never touch credentials.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) error
	SetRefreshTokenHash(ctx context.Context, userID, hash string) error
	RotateRefreshTokenHash(ctx context.Context, userID, currentHash, newHash string) error
	ClearRefreshTokenHash(ctx context.Context, userID string) error
}
