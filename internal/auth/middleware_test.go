package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/secrets/internal/entities"
)

func protectedRouter(sessions *SessionManager) *gin.Engine {
	mw := NewMiddleware(NewGate(sessions))
	router := gin.New()
	router.Use(sessions.SessionLoadSave())
	router.GET("/login-as/:id", func(c *gin.Context) {
		_ = sessions.Establish(c.Request.Context(), &entities.User{ID: c.Param("id")})
		c.Status(http.StatusNoContent)
	})
	router.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUser(c).ID})
	})
	return router
}

func TestRequireAuth_RedirectsBrowsers(t *testing.T) {
	env := setupTestEnv(t)
	router := protectedRouter(env.sessions)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?tab=mine", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fprotected%3Ftab%3Dmine", w.Header().Get("Location"))
}

func TestRequireAuth_APIClientsGet401(t *testing.T) {
	env := setupTestEnv(t)
	router := protectedRouter(env.sessions)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
}

func TestRequireAuth_AllowsAuthenticated(t *testing.T) {
	env := setupTestEnv(t)
	router := protectedRouter(env.sessions)
	user, err := env.verifier.Register(context.Background(), "alice", "pw123")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login-as/"+user.ID, nil))
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
}

func TestRequireAuth_StoreUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	sqlDB, err := env.db.DB.DB()
	require.NoError(t, err)
	sessions, err := NewSessionManager(sqlDB, NewSerializer(brokenStore{}), testAuthConfig())
	require.NoError(t, err)
	router := protectedRouter(sessions)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login-as/someone", nil))
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCurrentUser_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, CurrentUser(c))
	assert.False(t, IsAuthenticated(c))

	c.Set(ContextKeyUser, "not a user")
	assert.Nil(t, CurrentUser(c))

	c.Set(ContextKeyUser, &entities.User{ID: "u1"})
	assert.True(t, IsAuthenticated(c))
}
