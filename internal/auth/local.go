package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

// LocalVerifier checks username/password pairs and registers local accounts.
type LocalVerifier struct {
	store  CredentialStore
	cost   int
	policy PasswordPolicy

	dummyOnce sync.Once
	dummyHash string
}

// NewLocalVerifier creates a verifier using the bcrypt cost and password
// policy from cfg.
func NewLocalVerifier(store CredentialStore, cfg config.Auth) *LocalVerifier {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	minLength := cfg.MinPasswordLength
	if minLength <= 0 {
		minLength = config.DefaultMinPasswordLength
	}

	return &LocalVerifier{
		store:  store,
		cost:   cost,
		policy: PasswordPolicy{MinLength: minLength},
	}
}

// Verify returns the user owning username if password matches its stored
// hash. Every rejection is ErrInvalidCredentials; only store failures differ.
func (v *LocalVerifier) Verify(ctx context.Context, username, password string) (*entities.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := v.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			v.compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}

	if !user.HasPassword() {
		v.compareDummy(password)
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, *user.PasswordHash); err != nil {
		if !errors.Is(err, ErrInvalidPassword) {
			log.Printf("[AUTH] Stored hash for user %s is unusable: %v", user.ID, err)
		}
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Register creates a local account. A taken username yields ErrConflict and
// leaves the existing account untouched.
func (v *LocalVerifier) Register(ctx context.Context, username, password string) (*entities.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := v.policy.Validate(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, v.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := v.store.Create(ctx, &entities.User{
		Username:     entities.StringPtr(username),
		PasswordHash: entities.StringPtr(hash),
	})
	if err != nil {
		return nil, storeError(err)
	}

	log.Printf("[AUTH] Registered local user %s", user.ID)
	return user, nil
}

// Authenticate implements Authenticator for LocalCredentials.
func (v *LocalVerifier) Authenticate(ctx context.Context, creds Credentials) (*entities.User, error) {
	local, ok := creds.(LocalCredentials)
	if !ok {
		return nil, ErrUnsupportedCredentials
	}
	return v.Verify(ctx, local.Username, local.Password)
}

// compareDummy spends the same bcrypt work as a real comparison so response
// time does not reveal whether a username exists.
func (v *LocalVerifier) compareDummy(password string) {
	v.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), v.cost)
		if err == nil {
			v.dummyHash = string(hash)
		}
	})
	if v.dummyHash != "" {
		_ = bcrypt.CompareHashAndPassword([]byte(v.dummyHash), []byte(password))
	}
}

// storeError maps store errors onto the auth taxonomy. Conflicts pass
// through; anything else becomes ErrStoreUnavailable.
func storeError(err error) error {
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
