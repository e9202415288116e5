package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/oauth2"
	"github.com/mrlokans/secrets/internal/oauth2/providers"
	"github.com/mrlokans/secrets/internal/secrets"
	"github.com/mrlokans/secrets/internal/tasks"
	"github.com/mrlokans/secrets/internal/tokenstore"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// CredentialStore implementations
var _ auth.CredentialStore = (*users.Repository)(nil)

// secrets.Store implementations
var _ secrets.Store = (*users.Repository)(nil)

// Provider token persistence
var _ oauth2.TokenSaver = (*tokenstore.TokenStore)(nil)
var _ tasks.ProviderTokens = (*tokenstore.TokenStore)(nil)

// =============================================================================
// Authentication
// =============================================================================

// Authenticator implementations
var _ auth.Authenticator = (*auth.LocalVerifier)(nil)
var _ auth.Authenticator = (*auth.FederatedReconciler)(nil)
var _ auth.Authenticator = auth.Strategies{}

// =============================================================================
// External Services
// =============================================================================

// Provider implementations
var _ oauth2.Provider = (*providers.GoogleProvider)(nil)

// TokenRevoker implementations
var _ auth.TokenRevoker = (*tasks.Client)(nil)
