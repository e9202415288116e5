package oauth2

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"

	"github.com/google/uuid"
	xoauth2 "golang.org/x/oauth2"

	"github.com/mrlokans/secrets/internal/entities"
)

// TokenSaver persists provider tokens after a successful flow.
type TokenSaver interface {
	SaveToken(ctx context.Context, token *entities.DecryptedToken) error
}

// AuthRequest is a started web flow. State and CodeVerifier must be kept
// server-side until the callback arrives.
type AuthRequest struct {
	URL          string
	State        string
	CodeVerifier string
}

// CallbackParams are the query parameters of the provider redirect.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// FlowResult contains the result of a completed OAuth2 flow
type FlowResult struct {
	Provider entities.OAuthProvider
	Profile  Profile
	Token    TokenResponse
}

// FlowHandler handles OAuth2 authorization flows
type FlowHandler struct {
	provider Provider
	tokens   TokenSaver
}

// NewFlowHandler creates a new OAuth2 flow handler. tokens may be nil, in
// which case provider tokens are discarded after the profile is read.
// A failed save is logged and does not fail the flow.
func NewFlowHandler(provider Provider, tokens TokenSaver) *FlowHandler {
	return &FlowHandler{
		provider: provider,
		tokens:   tokens,
	}
}

// Provider returns the provider driving this flow.
func (h *FlowHandler) Provider() Provider {
	return h.provider
}

// StartWebFlow initiates a web-based OAuth2 flow with a fresh state and PKCE verifier.
func (h *FlowHandler) StartWebFlow() *AuthRequest {
	state := uuid.NewString()
	verifier := xoauth2.GenerateVerifier()

	return &AuthRequest{
		URL:          h.provider.BuildAuthURL(state, verifier),
		State:        state,
		CodeVerifier: verifier,
	}
}

// CompleteWebFlow completes a web-based OAuth2 flow after receiving the callback.
// The state must match the one issued by StartWebFlow.
func (h *FlowHandler) CompleteWebFlow(ctx context.Context, params CallbackParams, expectedState, codeVerifier string) (*FlowResult, error) {
	if params.Error != "" {
		return nil, fmt.Errorf("%w: %s %s", ErrAuthorizationDenied, params.Error, params.ErrorDescription)
	}
	if expectedState == "" || subtle.ConstantTimeCompare([]byte(expectedState), []byte(params.State)) != 1 {
		return nil, ErrStateMismatch
	}
	if params.Code == "" {
		return nil, ErrMissingCode
	}

	token, err := h.provider.ExchangeCode(ctx, params.Code, codeVerifier)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	profile, err := h.provider.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if profile.Subject == "" {
		return nil, ErrProfileIncomplete
	}

	if h.tokens != nil {
		err := h.tokens.SaveToken(ctx, &entities.DecryptedToken{
			Provider:     h.provider.Name(),
			AccountID:    profile.Subject,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			TokenType:    token.TokenType,
			ExpiresAt:    token.ExpiresAt(),
			Scope:        token.Scope,
		})
		if err != nil {
			// Sign-in does not depend on the stored token; revocation on
			// logout is skipped for this account.
			log.Printf("[OAUTH] Failed to save %s token: %v", h.provider.Name(), err)
		}
	}

	return &FlowResult{
		Provider: h.provider.Name(),
		Profile:  *profile,
		Token:    *token,
	}, nil
}
