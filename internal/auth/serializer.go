package auth

import (
	"context"
	"errors"

	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

// Serializer converts between a user and the token kept in the session.
// The token is the user's id; everything else is re-read from the store on
// every request, so a deleted user stops resolving immediately.
type Serializer struct {
	store CredentialStore
}

func NewSerializer(store CredentialStore) *Serializer {
	return &Serializer{store: store}
}

// Serialize returns the session token for user.
func (s *Serializer) Serialize(user *entities.User) string {
	return user.ID
}

// Deserialize resolves a session token. An empty token or a user that no
// longer exists yields ErrAuthenticationExpired.
func (s *Serializer) Deserialize(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrAuthenticationExpired
	}

	user, err := s.store.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrAuthenticationExpired
		}
		return nil, storeError(err)
	}
	return user, nil
}
