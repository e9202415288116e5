package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+\-]{3,64}$`)

var ErrInvalidPassword = errors.New("invalid password")

// PasswordPolicy validates new credentials before they are stored.
type PasswordPolicy struct {
	MinLength int
}

// ValidateUsername checks the registration rules for usernames.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// Validate checks a password against the policy.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength || password == "" {
		return fmt.Errorf("%w: minimum is %d characters", ErrPasswordTooShort, p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash. bcrypt ignores key bytes
// past MaxPasswordBytes, so longer passwords never match; the comparison still
// runs to keep timing uniform.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if len(password) > MaxPasswordBytes {
		if err == nil || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return ErrInvalidPassword
		}
		return err
	}
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

// GenerateSessionSecret creates a random 32-byte secret for CSRF token signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
