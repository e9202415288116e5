package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyLoginAt = "login_at"

	sessionKeyOAuthState    = "oauth_state"
	sessionKeyOAuthVerifier = "oauth_verifier"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "session"

func init() {
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
// The session holds only the serialized user id; the user itself is resolved
// through the Serializer on every request.
type SessionManager struct {
	*scs.SessionManager
	serializer *Serializer
	db         *sql.DB
}

// EnsureSessionsTable creates the table used by the scs sqlite3 store.
func EnsureSessionsTable(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

// NewSessionManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
// Expired rows are removed by SweepExpired rather than a store goroutine.
func NewSessionManager(sqlDB *sql.DB, serializer *Serializer, cfg config.Auth) (*SessionManager, error) {
	if err := EnsureSessionsTable(sqlDB); err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(sqlDB, 0)

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax so the provider's top-level redirect back to the callback carries the cookie.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{
		SessionManager: sm,
		serializer:     serializer,
		db:             sqlDB,
	}, nil
}

// Establish binds user to the current session. The token is renewed first so
// a pre-login session id cannot be reused.
func (sm *SessionManager) Establish(ctx context.Context, user *entities.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}

	sm.Put(ctx, SessionKeyUserID, sm.serializer.Serialize(user))
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// Token returns the serialized user of the session, or "" when anonymous.
func (sm *SessionManager) Token(ctx context.Context) string {
	return sm.GetString(ctx, SessionKeyUserID)
}

// CurrentUser resolves the session's user through the Serializer.
func (sm *SessionManager) CurrentUser(ctx context.Context) (*entities.User, error) {
	return sm.serializer.Deserialize(ctx, sm.Token(ctx))
}

// LoginAt returns when the session was established.
func (sm *SessionManager) LoginAt(ctx context.Context) time.Time {
	return sm.GetTime(ctx, SessionKeyLoginAt)
}

// End removes all session data and invalidates the session token.
func (sm *SessionManager) End(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// PutOAuthState keeps the web-flow state and PKCE verifier until the callback.
func (sm *SessionManager) PutOAuthState(ctx context.Context, state, codeVerifier string) {
	sm.Put(ctx, sessionKeyOAuthState, state)
	sm.Put(ctx, sessionKeyOAuthVerifier, codeVerifier)
}

// PopOAuthState returns and clears the pending web-flow state. Each state can
// be used at most once.
func (sm *SessionManager) PopOAuthState(ctx context.Context) (state, codeVerifier string) {
	return sm.PopString(ctx, sessionKeyOAuthState), sm.PopString(ctx, sessionKeyOAuthVerifier)
}

// Ping checks that the session table is readable.
func (sm *SessionManager) Ping(ctx context.Context) error {
	var n int
	return sm.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE expiry >= julianday('now')`).Scan(&n)
}

// SweepExpired deletes expired sessions from the store.
func (sm *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	return SweepExpiredSessions(ctx, sm.db)
}

// SweepExpiredSessions deletes expired rows from the sessions table.
func SweepExpiredSessions(ctx context.Context, db *sql.DB) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expiry < julianday('now')`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
