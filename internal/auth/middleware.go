package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/entities"
)

// ContextKeyUser holds the authenticated *entities.User in the gin context.
const ContextKeyUser = "auth_user"

// Middleware exposes the Gate to gin handlers.
type Middleware struct {
	gate *Gate
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(gate *Gate) *Middleware {
	return &Middleware{gate: gate}
}

// Handler resolves the session user, if any, for every request without
// blocking anonymous ones. Handlers can then call CurrentUser.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.gate.RequireAuthenticated(c.Request.Context())
		switch {
		case err == nil:
			c.Set(ContextKeyUser, user)
		case errors.Is(err, ErrStoreUnavailable):
			log.Printf("[AUTH] Could not resolve session user: %v", err)
		}
		c.Next()
	}
}

// RequireAuth returns a middleware that rejects anonymous requests.
// Browsers are redirected to the login page; API clients get 401.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user != nil {
			c.Next()
			return
		}

		user, err := m.gate.RequireAuthenticated(c.Request.Context())
		if err == nil {
			c.Set(ContextKeyUser, user)
			c.Next()
			return
		}

		if errors.Is(err, ErrStoreUnavailable) {
			log.Printf("[AUTH] Could not resolve session user: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "service temporarily unavailable",
			})
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// CurrentUser retrieves the authenticated user from the context, or nil.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// IsAuthenticated returns true if the request carries an authenticated user.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUser(c) != nil
}
