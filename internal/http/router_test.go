package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/secrets"
)

type testApp struct {
	router *gin.Engine
	store  *users.Repository
}

func setupTestApp(t *testing.T, templatesPath string) *testApp {
	t.Helper()
	db := setupHealthTestDB(t)
	store := users.NewRepository(db.DB)

	authCfg := config.Auth{BcryptCost: 4, MinPasswordLength: 5}
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sessions, err := auth.NewSessionManager(sqlDB, auth.NewSerializer(store), authCfg)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Database: db,
		Secrets:  secrets.NewService(store),
		Strategies: auth.Strategies{
			Local:     auth.NewLocalVerifier(store, authCfg),
			Federated: auth.NewFederatedReconciler(store),
		},
		Gate:          auth.NewGate(sessions),
		Sessions:      sessions,
		TemplatesPath: templatesPath,
		Version:       "test",
	})

	return &testApp{router: router, store: store}
}

func (a *testApp) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d)", w.Code)
	return nil
}

func TestRouter_RegisterLoginSubmitScenario(t *testing.T) {
	app := setupTestApp(t, "")
	ctx := context.Background()

	w := app.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = app.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/secrets", w.Header().Get("Location"))
	cookie := sessionCookie(t, w)

	w = app.do(http.MethodPost, "/submit", url.Values{"secret": {"hello"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/secrets", w.Header().Get("Location"))

	alice, err := app.store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice.Secret)
	assert.Equal(t, "hello", *alice.Secret)

	w = app.do(http.MethodGet, "/secrets", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")
}

func TestRouter_AnonymousSubmitIsRejected(t *testing.T) {
	app := setupTestApp(t, "")
	ctx := context.Background()

	_, err := auth.NewLocalVerifier(app.store, config.Auth{BcryptCost: 4}).Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	w := app.do(http.MethodPost, "/submit", url.Values{"secret": {"hello"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login"))

	list, err := app.store.ListWithSecrets(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "no store mutation for an anonymous request")
}

func TestRouter_ProtectedPagesRequireLogin(t *testing.T) {
	app := setupTestApp(t, "")

	for _, path := range []string{"/secrets", "/submit"} {
		w := app.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login?next="+url.QueryEscape(path), w.Header().Get("Location"), path)
		assert.NotContains(t, w.Body.String(), "Secrets", path)
	}
}

func TestRouter_SubmitValidation(t *testing.T) {
	app := setupTestApp(t, "")

	w := app.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	cookie := sessionCookie(t, w)

	w = app.do(http.MethodPost, "/submit", url.Values{"secret": {"   "}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_LogoutEndsAccess(t *testing.T) {
	app := setupTestApp(t, "")

	w := app.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	cookie := sessionCookie(t, w)

	w = app.do(http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/submit", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRouter_HomeAndHealth(t *testing.T) {
	app := setupTestApp(t, "")

	w := app.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Authenticated":false`)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = app.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessions": "ok"`)
}

func TestRouter_RendersTemplates(t *testing.T) {
	app := setupTestApp(t, "../../templates")

	w := app.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `href="/register"`)

	w = app.do(http.MethodGet, "/login", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)

	w = app.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	cookie := sessionCookie(t, w)
	w = app.do(http.MethodPost, "/submit", url.Values{"secret": {"<b>hello</b>"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)

	w = app.do(http.MethodGet, "/secrets", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "&lt;b&gt;hello&lt;/b&gt;", "secrets are escaped")
	assert.Contains(t, w.Body.String(), `<form class="inline" action="/logout" method="POST">`)
	assert.NotContains(t, w.Body.String(), `href="/logout"`)
}

func TestRouter_CSRFProtectsForms(t *testing.T) {
	db := setupHealthTestDB(t)
	store := users.NewRepository(db.DB)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	authCfg := config.Auth{BcryptCost: 4}
	sessions, err := auth.NewSessionManager(sqlDB, auth.NewSerializer(store), authCfg)
	require.NoError(t, err)

	app := &testApp{store: store, router: NewRouter(RouterConfig{
		Database:   db,
		Secrets:    secrets.NewService(store),
		Strategies: auth.Strategies{Local: auth.NewLocalVerifier(store, authCfg)},
		Gate:       auth.NewGate(sessions),
		Sessions:   sessions,
		CSRFSecret: []byte("0123456789abcdef0123456789abcdef"),
	})}

	w := app.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
