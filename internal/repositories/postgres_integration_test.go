package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/social"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	for name, find := range map[string]func() (models.User, error){
		"by id":       func() (models.User, error) { return repo.FindByID(ctx, user.ID) },
		"by username": func() (models.User, error) { return repo.FindByUsername(ctx, user.Username) },
		"by email":    func() (models.User, error) { return repo.FindByEmail(ctx, user.Email) },
	} {
		fetched, err := find()
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if fetched.ID != user.ID || fetched.PasswordHash != user.PasswordHash {
			t.Fatalf("find %s returned unexpected user: %+v", name, fetched)
		}
		if fetched.RefreshTokenHash != "" {
			t.Fatalf("fresh user should carry no refresh token hash, got %q", fetched.RefreshTokenHash)
		}
	}

	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown username, got %v", err)
	}

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	dup.Username = "someone-else"
	dup.Email = user.Email
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestPostgresUserRepository_ColumnUpdates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	if err := repo.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := repo.UpdateAvatar(ctx, user.ID, "https://cdn.example.com/avatars/new.png"); err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if err := repo.UpdateCoverImage(ctx, user.ID, "https://cdn.example.com/covers/new.png"); err != nil {
		t.Fatalf("update cover image: %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after updates: %v", err)
	}
	if fetched.PasswordHash != "new-hash" {
		t.Fatalf("expected rotated password hash, got %q", fetched.PasswordHash)
	}
	if !strings.HasSuffix(fetched.AvatarURL, "avatars/new.png") || !strings.HasSuffix(fetched.CoverImageURL, "covers/new.png") {
		t.Fatalf("expected updated media references, got %+v", fetched)
	}

	if err := repo.UpdatePassword(ctx, uuid.NewString(), "hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_RefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	if err := repo.SetRefreshTokenHash(ctx, user.ID, "hash-1"); err != nil {
		t.Fatalf("set refresh token hash: %v", err)
	}

	if err := repo.RotateRefreshTokenHash(ctx, user.ID, "hash-1", "hash-2"); err != nil {
		t.Fatalf("rotate refresh token hash: %v", err)
	}

	// A replay of the rotated-away hash affects zero rows.
	if err := repo.RotateRefreshTokenHash(ctx, user.ID, "hash-1", "hash-3"); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked for stale hash, got %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after rotation: %v", err)
	}
	if fetched.RefreshTokenHash != "hash-2" {
		t.Fatalf("expected hash-2 to be stored, got %q", fetched.RefreshTokenHash)
	}

	if err := repo.ClearRefreshTokenHash(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token hash: %v", err)
	}

	if err := repo.RotateRefreshTokenHash(ctx, user.ID, "hash-2", "hash-4"); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after clear, got %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after clear: %v", err)
	}
	if fetched.RefreshTokenHash != "" {
		t.Fatalf("expected empty refresh token hash, got %q", fetched.RefreshTokenHash)
	}
}

func TestPostgresSubscriptionRepository_EdgesAndCounts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	viewer := createTestUser(t, userRepo, "viewer")
	other := createTestUser(t, userRepo, "other")
	channel := createTestUser(t, userRepo, "channel")

	repo := NewPostgresSubscriptionRepository(testPool)

	edge := social.Edge{ActorID: viewer.ID, TargetType: "channel", TargetID: channel.ID}

	inserted, err := repo.InsertEdge(ctx, edge)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%t err=%v", inserted, err)
	}

	inserted, err = repo.InsertEdge(ctx, edge)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert should report inserted=false")
	}

	if _, err := repo.InsertEdge(ctx, social.Edge{ActorID: other.ID, TargetType: "channel", TargetID: channel.ID}); err != nil {
		t.Fatalf("second subscriber insert: %v", err)
	}

	count, err := repo.CountForChannel(ctx, channel.ID)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 subscribers, got %d (err %v)", count, err)
	}

	count, err = repo.CountForSubscriber(ctx, viewer.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 subscription, got %d (err %v)", count, err)
	}

	missing := social.Edge{ActorID: viewer.ID, TargetType: "channel", TargetID: uuid.NewString()}
	if _, err := repo.InsertEdge(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}

	deleted, err := repo.DeleteEdge(ctx, edge)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%t err=%v", deleted, err)
	}

	deleted, err = repo.DeleteEdge(ctx, edge)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("second delete should report deleted=false")
	}

	count, err = repo.CountForChannel(ctx, channel.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 subscriber after delete, got %d (err %v)", count, err)
	}
}

func TestPostgresLikeRepository_EdgesAndListing(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	viewer := createTestUser(t, userRepo, "viewer")

	repo := NewPostgresLikeRepository(testPool)

	videoEdge := social.Edge{ActorID: viewer.ID, TargetType: models.LikeTargetVideo, TargetID: uuid.NewString()}
	commentEdge := social.Edge{ActorID: viewer.ID, TargetType: models.LikeTargetComment, TargetID: uuid.NewString()}

	for _, edge := range []social.Edge{videoEdge, commentEdge} {
		inserted, err := repo.InsertEdge(ctx, edge)
		if err != nil || !inserted {
			t.Fatalf("insert %s like: inserted=%t err=%v", edge.TargetType, inserted, err)
		}
	}

	inserted, err := repo.InsertEdge(ctx, videoEdge)
	if err != nil {
		t.Fatalf("duplicate like insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate like should report inserted=false")
	}

	all, err := repo.ListForUser(ctx, viewer.ID, "")
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 likes, got %d", len(all))
	}

	videos, err := repo.ListForUser(ctx, viewer.ID, models.LikeTargetVideo)
	if err != nil {
		t.Fatalf("list video likes: %v", err)
	}
	if len(videos) != 1 || videos[0].TargetID != videoEdge.TargetID {
		t.Fatalf("unexpected video likes: %+v", videos)
	}

	deleted, err := repo.DeleteEdge(ctx, videoEdge)
	if err != nil || !deleted {
		t.Fatalf("delete like: deleted=%t err=%v", deleted, err)
	}

	all, err = repo.ListForUser(ctx, viewer.ID, "")
	if err != nil {
		t.Fatalf("list likes after delete: %v", err)
	}
	if len(all) != 1 || all[0].TargetType != models.LikeTargetComment {
		t.Fatalf("unexpected remaining likes: %+v", all)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE likes, subscriptions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: "password-hash",
		AvatarURL:    "https://cdn.example.com/avatars/" + username + ".png",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
