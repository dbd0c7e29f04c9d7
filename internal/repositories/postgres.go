package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/social"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token_hash, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.PasswordHash, user.AvatarURL, user.CoverImageURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findBy(ctx, `WHERE id = $1`, id)
}

// FindByUsername fetches a user by their case-normalized username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findBy(ctx, `WHERE username = $1`, username)
}

// FindByEmail fetches a user by their case-normalized email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findBy(ctx, `WHERE email = $1`, email)
}

func (r *PostgresUserRepository) findBy(ctx context.Context, where string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)

	var (
		user             models.User
		refreshTokenHash sql.NullString
	)
	if err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverImageURL, &refreshTokenHash, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	if refreshTokenHash.Valid {
		user.RefreshTokenHash = refreshTokenHash.String
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// UpdatePassword replaces the stored password hash. No other column is
// written, so the hash-once contract holds across unrelated updates.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateColumn(ctx, `password_hash`, userID, passwordHash)
}

// UpdateAvatar replaces the avatar reference.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	return r.updateColumn(ctx, `avatar_url`, userID, avatarURL)
}

// UpdateCoverImage replaces the cover image reference.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, userID, coverImageURL string) error {
	return r.updateColumn(ctx, `cover_image_url`, userID, coverImageURL)
}

// SetRefreshTokenHash stores the hash of a freshly issued refresh token,
// replacing any previous session reference.
func (r *PostgresUserRepository) SetRefreshTokenHash(ctx context.Context, userID, hash string) error {
	return r.updateColumn(ctx, `refresh_token_hash`, userID, hash)
}

// RotateRefreshTokenHash overwrites the stored refresh token hash only when it
// still equals currentHash, in one conditional update. A rotation that lost a
// race, or targets a revoked session, affects zero rows and surfaces as
// auth.ErrTokenRevoked.
func (r *PostgresUserRepository) RotateRefreshTokenHash(ctx context.Context, userID, currentHash, newHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token_hash = $3, updated_at = $4
        WHERE id = $1 AND refresh_token_hash = $2
    `, userID, currentHash, newHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rotate refresh token hash: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrTokenRevoked
	}

	return nil
}

// ClearRefreshTokenHash drops the stored session reference on logout.
func (r *PostgresUserRepository) ClearRefreshTokenHash(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token_hash = NULL, updated_at = $2
        WHERE id = $1
    `, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear refresh token hash: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresUserRepository) updateColumn(ctx context.Context, column, userID string, value any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET `+column+` = $2, updated_at = $3
        WHERE id = $1
    `, userID, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscription edges.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// InsertEdge creates the subscription unless the pair already exists. The
// uniqueness constraint resolves concurrent duplicate inserts; the loser
// reports inserted=false without an error.
func (r *PostgresSubscriptionRepository) InsertEdge(ctx context.Context, edge social.Edge) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, uuid.NewString(), edge.ActorID, edge.TargetID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteEdge removes the subscription if present.
func (r *PostgresSubscriptionRepository) DeleteEdge(ctx context.Context, edge social.Edge) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, edge.ActorID, edge.TargetID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// CountForChannel returns how many users subscribe to the channel.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `channel_id`, channelID)
}

// CountForSubscriber returns how many channels the user subscribes to.
func (r *PostgresSubscriptionRepository) CountForSubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `subscriber_id`, subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, column, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	row := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE `+column+` = $1`, id)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions by %s: %w", column, err)
	}

	return count, nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for like edges.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// InsertEdge creates the like unless the tuple already exists.
func (r *PostgresLikeRepository) InsertEdge(ctx context.Context, edge social.Edge) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, target_type, target_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, target_type, target_id) DO NOTHING
    `, uuid.NewString(), edge.ActorID, edge.TargetType, edge.TargetID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteEdge removes the like if present.
func (r *PostgresLikeRepository) DeleteEdge(ctx context.Context, edge social.Edge) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE user_id = $1 AND target_type = $2 AND target_id = $3
    `, edge.ActorID, edge.TargetType, edge.TargetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListForUser returns the user's likes, optionally filtered by target type.
func (r *PostgresLikeRepository) ListForUser(ctx context.Context, userID, targetType string) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT id, user_id, target_type, target_id, created_at
        FROM likes
        WHERE user_id = $1
    `
	args := []any{userID}
	if targetType != "" {
		query += ` AND target_type = $2`
		args = append(args, targetType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		var like models.Like
		if err := rows.Scan(&like.ID, &like.UserID, &like.TargetType, &like.TargetID, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		like.CreatedAt = like.CreatedAt.UTC()
		likes = append(likes, like)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return likes, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ auth.UserStore = (*PostgresUserRepository)(nil)
