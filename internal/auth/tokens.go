package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
)

// UserStore captures the persistence operations the token issuer needs. The
// refresh token hash mutations are column-scoped so issuing or revoking a
// session never touches credentials or profile fields.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshTokenHash(ctx context.Context, userID, hash string) error
	// RotateRefreshTokenHash overwrites the stored hash only if it still
	// equals currentHash, in a single conditional update. Implementations
	// return ErrTokenRevoked when the condition no longer holds.
	RotateRefreshTokenHash(ctx context.Context, userID, currentHash, newHash string) error
	ClearRefreshTokenHash(ctx context.Context, userID string) error
}

// Claims are the assertions carried by VideoTube session tokens. Access tokens
// carry the username and email alongside the registered claims; refresh tokens
// carry only the registered claims.
type Claims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer creates and validates signed session tokens. Access tokens are
// stateless: validity is determined entirely by signature and expiry. Refresh
// tokens must additionally match the hash stored on the user row, which is
// what makes rotation and forced logout possible.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	users UserStore

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewIssuer constructs an Issuer signing with the two distinct secrets.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, users UserStore) *Issuer {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		users:         users,
	}
}

// IssuePair signs a fresh access and refresh token pair for the user and
// persists the refresh token's hash as the single live session reference.
func (i *Issuer) IssuePair(ctx context.Context, user models.User) (models.SessionTokens, error) {
	access, accessExp, err := i.signAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refresh, refreshExp, err := i.signRefresh(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := i.users.SetRefreshTokenHash(ctx, user.ID, HashToken(refresh)); err != nil {
		return models.SessionTokens{}, fmt.Errorf("persist refresh token hash: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ValidateAccessToken verifies signature and expiry of an access token. It
// never touches the store.
func (i *Issuer) ValidateAccessToken(token string) (Claims, error) {
	return parseToken(token, i.accessSecret)
}

// Rotate exchanges a still-valid refresh token for a new session pair,
// invalidating the presented token. Exactly one of two concurrent rotations
// for the same token can succeed; the loser observes ErrTokenRevoked.
func (i *Issuer) Rotate(ctx context.Context, presented string) (models.SessionTokens, models.User, error) {
	claims, err := parseToken(presented, i.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	user, err := i.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.SessionTokens{}, models.User{}, fmt.Errorf("load refresh subject: %w", err)
	}

	access, accessExp, err := i.signAccess(user)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	refresh, refreshExp, err := i.signRefresh(user)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	// Single conditional update closes the replay window: the stored hash is
	// compared and overwritten in one indivisible store operation. One retry
	// covers transient storage failures only, never a revoked token.
	err = i.users.RotateRefreshTokenHash(ctx, user.ID, HashToken(presented), HashToken(refresh))
	if err != nil && !errors.Is(err, ErrTokenRevoked) {
		err = i.users.RotateRefreshTokenHash(ctx, user.ID, HashToken(presented), HashToken(refresh))
	}
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, user, nil
}

// Revoke clears the stored refresh token hash. Subsequent rotations with any
// previously issued refresh token fail with ErrTokenRevoked.
func (i *Issuer) Revoke(ctx context.Context, userID string) error {
	if err := i.users.ClearRefreshTokenHash(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token hash: %w", err)
	}
	return nil
}

func (i *Issuer) signAccess(user models.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.accessTTL)

	claims := Claims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expiresAt, nil
}

func (i *Issuer) signRefresh(user models.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.refreshTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        randomTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, expiresAt, nil
}

func (i *Issuer) now() time.Time {
	if i.NowFunc != nil {
		return i.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func parseToken(token string, secret []byte) (Claims, error) {
	if token == "" {
		return Claims{}, ErrTokenMalformed
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenMalformed
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrTokenMalformed
	}

	return claims, nil
}

// randomTokenID salts each refresh token so that back-to-back issuance for
// the same user never produces an identical signed payload.
func randomTokenID() string {
	return uuid.NewString()
}

// HashToken derives the persisted reference for a refresh token. Only this
// digest is ever stored; the raw token never leaves the response path.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
