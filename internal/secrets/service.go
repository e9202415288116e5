// Package secrets stores the one secret each user may publish and lists
// the published secrets anonymously.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

// MaxSecretLength caps a secret in characters.
const MaxSecretLength = 1000

var (
	ErrEmptySecret   = errors.New("secret must not be empty")
	ErrSecretTooLong = fmt.Errorf("secret exceeds %d characters", MaxSecretLength)
	ErrUserNotFound  = errors.New("user not found")
)

// Store is the part of the credential store the service needs.
type Store interface {
	SetSecret(ctx context.Context, id, secret string) (*entities.User, error)
	ListWithSecrets(ctx context.Context) ([]entities.User, error)
}

// Entry is a published secret. It carries no author information.
type Entry struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submit replaces the secret of the user identified by userID. Only the
// secret column is written, so concurrent changes to the account survive.
func (s *Service) Submit(ctx context.Context, userID, secret string) (*entities.User, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if utf8.RuneCountInString(secret) > MaxSecretLength {
		return nil, ErrSecretTooLong
	}

	saved, err := s.store.SetSecret(ctx, userID, secret)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return saved, nil
}

// List returns all published secrets, most recently updated first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	list, err := s.store.ListWithSecrets(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(list))
	for _, u := range list {
		entries = append(entries, Entry{Text: u.SecretText(), UpdatedAt: u.UpdatedAt})
	}
	return entries, nil
}
