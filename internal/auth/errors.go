package auth

import "errors"

var (
	// ErrInvalidCredentials indicates the supplied identifier/password pair
	// does not match a known account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired indicates a token whose signature is valid but whose
	// lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed indicates a token that is absent, garbled, or carries
	// an invalid signature.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenRevoked indicates a refresh token that no longer matches the
	// user's stored reference: it was rotated away or invalidated by logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrForbidden indicates an authenticated caller attempting an operation
	// they lack rights to.
	ErrForbidden = errors.New("forbidden")
)
