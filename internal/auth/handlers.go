package auth

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// DefaultLandingPath is where users go after logging in or registering.
const DefaultLandingPath = "/secrets"

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to DefaultLandingPath.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return DefaultLandingPath
}

// TokenRevoker schedules revocation of a federated account's provider token.
type TokenRevoker interface {
	EnqueueRevocation(ctx context.Context, provider entities.OAuthProvider, accountID string) error
}

// ControllerOptions wires the AuthController.
type ControllerOptions struct {
	Strategies Strategies
	Gate       *Gate
	Sessions   *SessionManager

	// Google is nil when Google sign-in is not configured.
	Google *oauth2.FlowHandler
	// Revoker is optional.
	Revoker TokenRevoker

	TemplatesPath string
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	strategies Strategies
	gate       *Gate
	sessions   *SessionManager
	google     *oauth2.FlowHandler
	revoker    TokenRevoker
	templates  *template.Template
}

// NewAuthController creates a new authentication controller.
func NewAuthController(opts ControllerOptions) *AuthController {
	var tmpl *template.Template
	if opts.TemplatesPath != "" {
		parsed, err := template.ParseGlob(filepath.Join(opts.TemplatesPath, "*.html"))
		if err != nil {
			log.Printf("[AUTH] Templates not loaded from %s, answering with JSON: %v", opts.TemplatesPath, err)
		} else {
			tmpl = parsed
		}
	}

	return &AuthController{
		strategies: opts.Strategies,
		gate:       opts.Gate,
		sessions:   opts.Sessions,
		google:     opts.Google,
		revoker:    opts.Revoker,
		templates:  tmpl,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.POST("/logout", ac.Logout)
	router.GET("/auth/google", ac.GoogleStart)
	router.GET("/auth/google/secrets", ac.GoogleCallback)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, DefaultLandingPath)
		return
	}

	ac.renderTemplate(c, http.StatusOK, "login.html", gin.H{
		"Title":         "Login",
		"Next":          sanitizeRedirectPath(c.Query("next")),
		"CSRFToken":     GetCSRFToken(c),
		"Error":         c.Query("error"),
		"GoogleEnabled": ac.google != nil,
	})
}

// Login verifies the submitted credentials and, only if they are valid,
// establishes the session. A failed attempt leaves the session as it was.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := ac.strategies.Authenticate(c.Request.Context(), LocalCredentials{
		Username: username,
		Password: c.PostForm("password"),
	})
	if err != nil {
		status, msg := http.StatusUnauthorized, "Invalid username or password"
		if errors.Is(err, ErrStoreUnavailable) {
			log.Printf("[AUTH] Login failed: %v", err)
			status, msg = http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again."
		}
		ac.renderTemplate(c, status, "login.html", gin.H{
			"Title":         "Login",
			"Next":          next,
			"Username":      username,
			"CSRFToken":     GetCSRFToken(c),
			"Error":         msg,
			"GoogleEnabled": ac.google != nil,
		})
		return
	}

	if err := ac.gate.Establish(c.Request.Context(), user); err != nil {
		log.Printf("[AUTH] Failed to establish session: %v", err)
		ac.renderTemplate(c, http.StatusInternalServerError, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Failed to create session",
		})
		return
	}

	c.Redirect(http.StatusFound, next)
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, DefaultLandingPath)
		return
	}

	ac.renderTemplate(c, http.StatusOK, "register.html", gin.H{
		"Title":         "Register",
		"CSRFToken":     GetCSRFToken(c),
		"Error":         c.Query("error"),
		"GoogleEnabled": ac.google != nil,
	})
}

// Register creates a local account and logs it in.
func (ac *AuthController) Register(c *gin.Context) {
	username := c.PostForm("username")

	if ac.strategies.Local == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	user, err := ac.strategies.Local.Register(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		status, msg := http.StatusInternalServerError, "Failed to create user"
		switch {
		case errors.Is(err, ErrConflict):
			status, msg = http.StatusConflict, "Username is already taken"
		case errors.Is(err, ErrUsernameInvalid):
			status, msg = http.StatusBadRequest, "Username must be 3-64 characters: letters, digits or _ . @ + -"
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			status, msg = http.StatusBadRequest, capitalize(err.Error())
		case errors.Is(err, ErrStoreUnavailable):
			status, msg = http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again."
		}
		if status >= http.StatusInternalServerError {
			log.Printf("[AUTH] Registration failed: %v", err)
		}

		ac.renderTemplate(c, status, "register.html", gin.H{
			"Title":         "Register",
			"Username":      username,
			"CSRFToken":     GetCSRFToken(c),
			"Error":         msg,
			"GoogleEnabled": ac.google != nil,
		})
		return
	}

	if err := ac.gate.Establish(c.Request.Context(), user); err != nil {
		log.Printf("[AUTH] Failed to establish session after registration: %v", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.Redirect(http.StatusFound, DefaultLandingPath)
}

// Logout destroys the session and redirects to the home page.
func (ac *AuthController) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if user := CurrentUser(c); user != nil {
		if loginAt := ac.sessions.LoginAt(ctx); !loginAt.IsZero() {
			log.Printf("[AUTH] User %s logged out after %s", user.ID, time.Since(loginAt).Round(time.Second))
		}
		if user.IsFederated() && ac.revoker != nil {
			provider := entities.OAuthProvider(user.Provider)
			if err := ac.revoker.EnqueueRevocation(ctx, provider, *user.FederatedID); err != nil {
				log.Printf("[AUTH] Failed to queue %s token revocation for user %s: %v", provider, user.ID, err)
			}
		}
	}

	if err := ac.gate.Logout(ctx); err != nil {
		log.Printf("[AUTH] Failed to destroy session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// GoogleStart redirects to Google's consent page.
func (ac *AuthController) GoogleStart(c *gin.Context) {
	if ac.google == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	req := ac.google.StartWebFlow()
	ac.sessions.PutOAuthState(c.Request.Context(), req.State, req.CodeVerifier)
	c.Redirect(http.StatusFound, req.URL)
}

// GoogleCallback finishes Google sign-in: it checks the state, reads the
// account id from the profile and logs in the reconciled user.
func (ac *AuthController) GoogleCallback(c *gin.Context) {
	if ac.google == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	ctx := c.Request.Context()
	state, verifier := ac.sessions.PopOAuthState(ctx)

	result, err := ac.google.CompleteWebFlow(ctx, oauth2.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}, state, verifier)
	if err != nil {
		log.Printf("[AUTH] Google sign-in failed: %v", err)
		c.Redirect(http.StatusFound, "/login?error=Google+sign-in+failed")
		return
	}

	user, err := ac.strategies.Authenticate(ctx, FederatedCredentials{
		Provider:    result.Provider,
		FederatedID: result.Profile.Subject,
	})
	if err != nil {
		log.Printf("[AUTH] Could not reconcile Google identity: %v", err)
		if errors.Is(err, ErrStoreUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			return
		}
		c.Redirect(http.StatusFound, "/login?error=Google+sign-in+failed")
		return
	}

	if err := ac.gate.Establish(ctx, user); err != nil {
		log.Printf("[AUTH] Failed to establish session: %v", err)
		c.Redirect(http.StatusFound, "/login?error=Failed+to+create+session")
		return
	}

	c.Redirect(http.StatusFound, DefaultLandingPath)
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		log.Printf("[AUTH] Template %s failed: %v", name, err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
