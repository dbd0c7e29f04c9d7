package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/social"
)

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) error
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) error
}

// TokenService issues, rotates, and revokes session token pairs.
type TokenService interface {
	IssuePair(ctx context.Context, user models.User) (models.SessionTokens, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, models.User, error)
	Revoke(ctx context.Context, userID string) error
}

// Authenticator resolves the identity asserted by a request's access token.
type Authenticator interface {
	Authenticate(r *http.Request) (models.Identity, error)
}

// EdgeToggler flips a relationship edge between absent and present.
type EdgeToggler interface {
	Toggle(ctx context.Context, edge social.Edge) (social.State, error)
}

// SubscriptionStore exposes subscription counts for channels and subscribers.
type SubscriptionStore interface {
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
}

// LikeStore lists like edges for a user.
type LikeStore interface {
	ListForUser(ctx context.Context, userID, targetType string) ([]models.Like, error)
}

// MediaStore persists uploaded media and returns its public location.
type MediaStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}
