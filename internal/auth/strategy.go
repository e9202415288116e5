package auth

import (
	"context"

	"github.com/mrlokans/secrets/internal/entities"
)

// Credentials is the closed set of inputs a route can authenticate with.
type Credentials interface {
	credentials()
}

// LocalCredentials is a username/password pair from the login form.
type LocalCredentials struct {
	Username string
	Password string
}

// FederatedCredentials is an identity asserted by an external provider.
type FederatedCredentials struct {
	Provider    entities.OAuthProvider
	FederatedID string
}

func (LocalCredentials) credentials()     {}
func (FederatedCredentials) credentials() {}

// Authenticator turns credentials into a user.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*entities.User, error)
}

// Strategies dispatches each credential variant to its handler.
type Strategies struct {
	Local     *LocalVerifier
	Federated *FederatedReconciler
}

func (s Strategies) Authenticate(ctx context.Context, creds Credentials) (*entities.User, error) {
	switch creds.(type) {
	case LocalCredentials:
		if s.Local != nil {
			return s.Local.Authenticate(ctx, creds)
		}
	case FederatedCredentials:
		if s.Federated != nil {
			return s.Federated.Authenticate(ctx, creds)
		}
	}
	return nil, ErrUnsupportedCredentials
}
