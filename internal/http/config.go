package http

import (
	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/oauth2"
	"github.com/mrlokans/secrets/internal/secrets"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Secrets  *secrets.Service

	// Authentication
	Strategies   auth.Strategies
	Gate         *auth.Gate
	Sessions     *auth.SessionManager
	GoogleFlow   *oauth2.FlowHandler // nil disables Google sign-in
	TokenRevoker auth.TokenRevoker   // optional

	// CSRF protection is skipped when CSRFSecret is empty.
	CSRFSecret    []byte
	SecureCookies bool

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
