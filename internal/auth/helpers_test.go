package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testCost keeps bcrypt fast in tests.
const testCost = 4

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:   time.Hour,
		BcryptCost:        testCost,
		SecureCookies:     false,
		MinPasswordLength: 5,
	}
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := database.NewDatabase(path, database.WithLogLevel(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestStore(t *testing.T) (*users.Repository, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	return users.NewRepository(db.DB), db
}

type testEnv struct {
	store      *users.Repository
	db         *database.Database
	verifier   *LocalVerifier
	reconciler *FederatedReconciler
	sessions   *SessionManager
	gate       *Gate
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, db := setupTestStore(t)

	sqlDB, err := db.DB.DB()
	if err != nil {
		t.Fatalf("failed to get SQL DB: %v", err)
	}
	sessions, err := NewSessionManager(sqlDB, NewSerializer(store), testAuthConfig())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	return &testEnv{
		store:      store,
		db:         db,
		verifier:   NewLocalVerifier(store, testAuthConfig()),
		reconciler: NewFederatedReconciler(store),
		sessions:   sessions,
		gate:       NewGate(sessions),
	}
}

// loadSession returns a context carrying a fresh, empty session.
func (e *testEnv) loadSession(t *testing.T) context.Context {
	t.Helper()
	ctx, err := e.sessions.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return ctx
}

// brokenStore fails every call the way an unreachable database would.
type brokenStore struct{}

var errBroken = fmt.Errorf("%w: disk I/O error", users.ErrUnavailable)

func (brokenStore) FindByID(context.Context, string) (*entities.User, error) { return nil, errBroken }
func (brokenStore) FindByUsername(context.Context, string) (*entities.User, error) {
	return nil, errBroken
}
func (brokenStore) FindByFederatedID(context.Context, string) (*entities.User, error) {
	return nil, errBroken
}
func (brokenStore) Create(context.Context, *entities.User) (*entities.User, error) {
	return nil, errBroken
}
func (brokenStore) Save(context.Context, *entities.User) (*entities.User, error) {
	return nil, errBroken
}

// racingStore reports a miss on the first federated lookup and a conflict on
// create, as if another request inserted the same identity in between.
type racingStore struct {
	CredentialStore
	mu      sync.Mutex
	lookups int
	creates int
}

func (s *racingStore) FindByFederatedID(ctx context.Context, fid string) (*entities.User, error) {
	s.mu.Lock()
	s.lookups++
	first := s.lookups == 1
	s.mu.Unlock()
	if first {
		return nil, users.ErrNotFound
	}
	return s.CredentialStore.FindByFederatedID(ctx, fid)
}

func (s *racingStore) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	return s.CredentialStore.Create(ctx, user)
}

// sessionCookie extracts the session cookie set by a response, if any.
func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}
