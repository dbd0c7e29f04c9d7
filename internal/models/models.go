package models

import "time"

// User represents an account within the VideoTube platform. A user is also a
// channel that other users may subscribe to.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	// RefreshTokenHash holds the SHA-256 hex digest of the currently valid
	// refresh token, or the empty string when the user has no active session.
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Identity is the projection of a user exposed to request handlers and API
// responses. It never carries the password hash or the refresh token reference.
type Identity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatarUrl"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
}

// Identity derives the public projection from a full user record.
func (u User) Identity() Identity {
	return Identity{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
	}
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Target types accepted by the like toggle.
const (
	LikeTargetVideo   = "video"
	LikeTargetComment = "comment"
	LikeTargetTweet   = "tweet"
)

// Subscription is the edge recording that a user follows a channel. At most
// one row exists per (subscriber, channel) pair.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Like is the edge recording that a user liked a video, comment, or tweet. At
// most one row exists per (user, target type, target) tuple.
type Like struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	CreatedAt  time.Time `json:"createdAt"`
}
