package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

// reconcileAttempts bounds the find-or-create loop. A second pass only happens
// when a concurrent create won the race; a third covers the winner being
// deleted in between.
const reconcileAttempts = 3

// FederatedReconciler maps a provider-asserted identity to exactly one local user.
type FederatedReconciler struct {
	store CredentialStore
}

func NewFederatedReconciler(store CredentialStore) *FederatedReconciler {
	return &FederatedReconciler{store: store}
}

// Reconcile returns the user linked to federatedID, creating it on first
// sign-in. Concurrent calls for the same id all return the same user.
func (r *FederatedReconciler) Reconcile(ctx context.Context, provider entities.OAuthProvider, federatedID string) (*entities.User, error) {
	if federatedID == "" {
		return nil, ErrInvalidCredentials
	}

	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		user, err := r.store.FindByFederatedID(ctx, federatedID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, users.ErrNotFound) {
			return nil, storeError(err)
		}

		user, err = r.store.Create(ctx, &entities.User{
			FederatedID: entities.StringPtr(federatedID),
			Provider:    string(provider),
		})
		if err == nil {
			log.Printf("[AUTH] Created user %s for %s identity", user.ID, provider)
			return user, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, storeError(err)
		}
		// Lost the race: the next pass reads the winner.
	}

	return nil, fmt.Errorf("%w: could not settle user for federated identity after %d attempts", ErrStoreUnavailable, reconcileAttempts)
}

// Authenticate implements Authenticator for FederatedCredentials.
func (r *FederatedReconciler) Authenticate(ctx context.Context, creds Credentials) (*entities.User, error) {
	fed, ok := creds.(FederatedCredentials)
	if !ok {
		return nil, ErrUnsupportedCredentials
	}
	return r.Reconcile(ctx, fed.Provider, fed.FederatedID)
}
