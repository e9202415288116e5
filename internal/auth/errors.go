package auth

import (
	"errors"

	"github.com/mrlokans/secrets/internal/database/users"
)

var (
	// ErrInvalidCredentials is returned for every failed local login,
	// regardless of whether the username exists.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrConflict is returned when a username or federated id is already taken.
	ErrConflict = users.ErrConflict

	// ErrStoreUnavailable wraps any credential store failure.
	ErrStoreUnavailable = users.ErrUnavailable

	// ErrAuthenticationExpired means a session references a user that no longer resolves.
	ErrAuthenticationExpired = errors.New("authentication expired")

	// ErrUnauthenticated is returned by the gate when no user is signed in.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrUsernameInvalid rejects a registration username outside the allowed shape.
	ErrUsernameInvalid = errors.New("username must be 3-64 characters of letters, digits or _.@+-")

	// ErrPasswordTooShort rejects a registration password below the configured minimum.
	ErrPasswordTooShort = errors.New("password is too short")

	// ErrPasswordTooLong rejects a registration password bcrypt would truncate.
	ErrPasswordTooLong = errors.New("password exceeds maximum length of 72 bytes")

	// ErrUnsupportedCredentials means an Authenticator received a credential variant it does not handle.
	ErrUnsupportedCredentials = errors.New("unsupported credentials")
)
