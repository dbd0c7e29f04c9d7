package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCredentialStoreHashAndVerify(t *testing.T) {
	store := NewCredentialStore(bcrypt.MinCost, 2)

	hash, err := store.Hash(context.Background(), "P@ssw0rd1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "P@ssw0rd1" || hash == "" {
		t.Fatalf("expected hashed password, got %q", hash)
	}

	if err := store.Verify(context.Background(), "P@ssw0rd1", hash); err != nil {
		t.Fatalf("verify with correct password: %v", err)
	}

	if err := store.Verify(context.Background(), "p@ssw0rd1", hash); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestCredentialStoreHashIsSalted(t *testing.T) {
	store := NewCredentialStore(bcrypt.MinCost, 1)

	first, err := store.Hash(context.Background(), "correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := store.Hash(context.Background(), "correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for repeated plaintext")
	}
}

func TestCredentialStoreRejectsWeakPasswords(t *testing.T) {
	store := NewCredentialStore(bcrypt.MinCost, 1)

	for _, plaintext := range []string{"", "short"} {
		if _, err := store.Hash(context.Background(), plaintext); !errors.Is(err, ErrPasswordPolicy) {
			t.Fatalf("expected ErrPasswordPolicy for %q, got %v", plaintext, err)
		}
	}
}

func TestCredentialStoreVerifyEmptyInputs(t *testing.T) {
	store := NewCredentialStore(bcrypt.MinCost, 1)

	if err := store.Verify(context.Background(), "", "some-hash"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty plaintext, got %v", err)
	}
	if err := store.Verify(context.Background(), "password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty hash, got %v", err)
	}
}

func TestCredentialStoreHonorsCancellation(t *testing.T) {
	store := NewCredentialStore(bcrypt.MinCost, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Hash(ctx, "P@ssw0rd1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
