package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
	"github.com/mrlokans/secrets/internal/tokenstore"
)

// ProviderTokens is the subset of the token store used by revocation.
type ProviderTokens interface {
	GetToken(ctx context.Context, provider entities.OAuthProvider, accountID string) (*entities.DecryptedToken, error)
	DeleteToken(ctx context.Context, provider entities.OAuthProvider, accountID string) error
}

// RevokeProviderTokenTask revokes and forgets the stored token of a federated account.
type RevokeProviderTokenTask struct {
	Provider  entities.OAuthProvider `json:"provider"`
	AccountID string                 `json:"account_id"`
}

// Config returns the queue configuration for token revocation tasks.
func (t RevokeProviderTokenTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "revoke_provider_token",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RevokeProviderTokenProcessor creates a processor function for RevokeProviderTokenTask.
// Providers are looked up by name; a task for an unknown provider fails.
func RevokeProviderTokenProcessor(tokens ProviderTokens, providers ...oauth2.Provider) backlite.QueueProcessor[RevokeProviderTokenTask] {
	byName := make(map[entities.OAuthProvider]oauth2.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return func(ctx context.Context, task RevokeProviderTokenTask) error {
		if tokens == nil {
			return fmt.Errorf("token store not configured")
		}
		provider, ok := byName[task.Provider]
		if !ok {
			return fmt.Errorf("unknown provider %q", task.Provider)
		}

		token, err := tokens.GetToken(ctx, task.Provider, task.AccountID)
		if errors.Is(err, tokenstore.ErrTokenNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load token: %w", err)
		}

		// Revoking the refresh token also invalidates access tokens issued from it.
		value := token.RefreshToken
		if value == "" {
			value = token.AccessToken
		}
		if err := provider.RevokeToken(ctx, value); err != nil {
			return fmt.Errorf("revoke %s token: %w", task.Provider, err)
		}

		if err := tokens.DeleteToken(ctx, task.Provider, task.AccountID); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}

		log.Printf("[TASK] Revoked %s token for account %s", task.Provider, task.AccountID)
		return nil
	}
}

// NewRevokeProviderTokenQueue creates a backlite queue for token revocation tasks.
func NewRevokeProviderTokenQueue(tokens ProviderTokens, providers ...oauth2.Provider) backlite.Queue {
	return backlite.NewQueue(RevokeProviderTokenProcessor(tokens, providers...))
}

// EnqueueRevocation schedules revocation of the provider token held for accountID.
func (c *Client) EnqueueRevocation(ctx context.Context, provider entities.OAuthProvider, accountID string) error {
	if accountID == "" {
		return nil
	}
	_, err := c.Add(RevokeProviderTokenTask{Provider: provider, AccountID: accountID}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("failed to enqueue token revocation: %w", err)
	}
	return nil
}
