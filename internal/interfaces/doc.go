// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CredentialStore: user lookup and unique-constrained writes (internal/auth/store.go)
//   - Store: secret submission and listing (internal/secrets/service.go)
//   - TokenSaver: provider token persistence after sign-in (internal/oauth2/flow.go)
//   - ProviderTokens: token lookup and deletion for revocation (internal/tasks/revoke_token.go)
//
// ## Authentication Interfaces
//
//   - Authenticator: turns Credentials into a user (internal/auth/strategy.go)
//   - Credentials: closed set of LocalCredentials and FederatedCredentials
//
// ## External Service Interfaces
//
//   - Provider: OAuth2 identity provider (internal/oauth2/provider.go)
//   - TokenRevoker: schedules provider token revocation on logout (internal/auth/handlers.go)
//
// # Adding a New Identity Provider
//
// To add sign-in with another provider (e.g., GitHub):
//
//  1. Implement Provider in internal/oauth2/providers/
//
//     type GitHubProvider struct {
//         config *xoauth2.Config
//     }
//
//     func (p *GitHubProvider) Name() entities.OAuthProvider
//     func (p *GitHubProvider) BuildAuthURL(state, codeVerifier string) string
//     func (p *GitHubProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.TokenResponse, error)
//     func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (*oauth2.Profile, error)
//     func (p *GitHubProvider) RevokeToken(ctx context.Context, token string) error
//
//     var _ oauth2.Provider = (*GitHubProvider)(nil)
//
//  2. Add start and callback routes next to the Google ones in internal/auth/handlers.go.
//     The callback hands FederatedCredentials to the reconciler. FederatedID is
//     unique across all providers, so prefix ids if two providers can issue the same one.
//
//  3. Pass the provider to tasks.NewRevokeProviderTokenQueue in entrypoint.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
