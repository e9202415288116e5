package auth

import (
	"context"

	"github.com/mrlokans/secrets/internal/entities"
)

// CredentialStore is the persistence contract of the auth layer.
//
// Finders return ErrNotFound-wrapped errors from the users package when no
// record matches. Create must enforce uniqueness of username and federated id
// atomically and return ErrConflict without touching the existing record.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	Save(ctx context.Context, user *entities.User) (*entities.User, error)
}
