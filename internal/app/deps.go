package app

import (
	"context"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/social"
	"github.com/videotube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)

	credentials := auth.NewCredentialStore(cfg.Credentials.BcryptCost, cfg.Credentials.HashWorkers)
	issuer := auth.NewIssuer(
		cfg.Tokens.AccessSecret,
		cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshTTL,
		users,
	)
	gate := auth.SessionGate{Tokens: issuer, Users: users}

	media, err := storage.NewS3MediaStorage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	loginLimiter := middleware.NewIPRateLimiter(
		cfg.LoginLimit.Requests,
		cfg.LoginLimit.Window,
		cfg.LoginLimit.Burst,
		cfg.LoginLimit.TTL,
	)

	return handlers.Dependencies{
		Users:              users,
		Credentials:        credentials,
		Tokens:             issuer,
		Gate:               gate,
		Subscriptions:      subscriptions,
		SubToggler:         social.NewToggler(subscriptions, "channel"),
		Likes:              likes,
		LikeToggler:        social.NewToggler(likes, models.LikeTargetVideo, models.LikeTargetComment, models.LikeTargetTweet),
		Media:              media,
		LoginLimiter:       loginLimiter,
		Cookies:            handlers.CookiePolicy{Secure: cfg.Cookies.Secure, Domain: cfg.Cookies.Domain},
		AllowSelfSubscribe: cfg.AllowSelfSubscribe,
	}, nil
}
