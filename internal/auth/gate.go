package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/secrets/internal/entities"
)

// Gate answers whether a session belongs to an authenticated user.
type Gate struct {
	sessions *SessionManager
}

func NewGate(sessions *SessionManager) *Gate {
	return &Gate{sessions: sessions}
}

// IsAuthenticated reports whether the session resolves to an existing user.
// It never modifies the session.
func (g *Gate) IsAuthenticated(ctx context.Context) bool {
	if g.sessions.Token(ctx) == "" {
		return false
	}
	_, err := g.sessions.CurrentUser(ctx)
	return err == nil
}

// RequireAuthenticated returns the session's user or ErrUnauthenticated.
// A session whose user no longer exists is destroyed and the error also
// matches ErrAuthenticationExpired. Store failures are returned as
// ErrStoreUnavailable so callers do not mistake them for a logged-out user.
func (g *Gate) RequireAuthenticated(ctx context.Context) (*entities.User, error) {
	if g.sessions.Token(ctx) == "" {
		return nil, ErrUnauthenticated
	}

	user, err := g.sessions.CurrentUser(ctx)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrAuthenticationExpired) {
		return nil, err
	}

	if endErr := g.sessions.End(ctx); endErr != nil {
		log.Printf("[AUTH] Failed to destroy expired session: %v", endErr)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrAuthenticationExpired)
}

// Establish logs user in on the current session.
func (g *Gate) Establish(ctx context.Context, user *entities.User) error {
	return g.sessions.Establish(ctx, user)
}

// Logout ends the session. It is safe to call on an anonymous session.
func (g *Gate) Logout(ctx context.Context) error {
	return g.sessions.End(ctx)
}
