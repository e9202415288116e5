package oauth2

import (
	"context"
	"time"

	"github.com/mrlokans/secrets/internal/entities"
)

// TokenResponse contains tokens returned from the OAuth2 provider
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time // zero when the provider sent no expiry
	Scope        string
}

// ExpiresAt returns the expiry as a pointer, nil when unknown.
func (t *TokenResponse) ExpiresAt() *time.Time {
	if t.Expiry.IsZero() {
		return nil
	}
	exp := t.Expiry
	return &exp
}

// Profile is the subset of the provider's user profile the app relies on.
type Profile struct {
	// Subject is the provider's stable account identifier.
	Subject string
	Email   string
	Name    string
}

// Provider defines the interface for OAuth2 identity providers
type Provider interface {
	// Name returns the provider identifier (e.g., "google")
	Name() entities.OAuthProvider

	// BuildAuthURL constructs the consent URL carrying state and the PKCE
	// challenge derived from codeVerifier.
	BuildAuthURL(state, codeVerifier string) string

	// ExchangeCode exchanges an authorization code for tokens
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error)

	// FetchProfile retrieves the profile of the account owning accessToken
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)

	// RevokeToken invalidates an access or refresh token at the provider
	RevokeToken(ctx context.Context, token string) error
}
