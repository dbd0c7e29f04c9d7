package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrPasswordPolicy indicates a plaintext password that fails validation
// before hashing is attempted.
var ErrPasswordPolicy = errors.New("password does not meet policy")

// MinPasswordLength is the shortest password accepted at registration or
// password change.
const MinPasswordLength = 8

// CredentialStore hashes and verifies passwords with bcrypt. All hashing work
// passes through a weighted semaphore so that a burst of logins or signups
// cannot starve lightweight requests of CPU.
type CredentialStore struct {
	cost int
	sem  *semaphore.Weighted
}

// NewCredentialStore constructs a CredentialStore using the provided bcrypt
// cost and at most workers concurrent hash computations.
func NewCredentialStore(cost, workers int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = 1
	}
	return &CredentialStore{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(workers)),
	}
}

// Hash derives a one-way bcrypt hash from the plaintext password. It is called
// exactly once per credential write; callers must not re-hash an unchanged
// password on unrelated profile updates.
func (c *CredentialStore) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) < MinPasswordLength {
		return "", ErrPasswordPolicy
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares the plaintext against a stored hash. bcrypt's comparison
// does not short-circuit on the first differing byte. A mismatch is reported
// as ErrInvalidCredentials.
func (c *CredentialStore) Verify(ctx context.Context, plaintext, hash string) error {
	if plaintext == "" || hash == "" {
		return ErrInvalidCredentials
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
