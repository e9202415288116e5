package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xoauth2 "golang.org/x/oauth2"

	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
)

type fakeGoogle struct {
	*httptest.Server
	lastTokenForm  url.Values
	lastRevokeForm url.Values
	revokeStatus   int
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{revokeStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.lastTokenForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"scope":         "openid profile",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"1234567890","email":"alice@example.com","name":"Alice"}`))
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.lastRevokeForm = r.PostForm
		w.WriteHeader(f.revokeStatus)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGoogle) provider() *GoogleProvider {
	return NewGoogleProvider("client-id", "client-secret", "http://localhost:3000/auth/google/secrets",
		WithEndpoint(xoauth2.Endpoint{
			AuthURL:   f.URL + "/auth",
			TokenURL:  f.URL + "/token",
			AuthStyle: xoauth2.AuthStyleInParams,
		}),
		WithUserInfoURL(f.URL+"/userinfo"),
		WithRevokeURL(f.URL+"/revoke"),
		WithHTTPClient(f.Client()),
	)
}

func TestGoogleProvider_Name(t *testing.T) {
	p := NewGoogleProvider("id", "secret", "http://localhost/cb")
	assert.Equal(t, entities.OAuthProviderGoogle, p.Name())
}

func TestGoogleProvider_BuildAuthURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost:3000/auth/google/secrets")

	raw := p.BuildAuthURL("state-1", xoauth2.GenerateVerifier())

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "http://localhost:3000/auth/google/secrets", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "profile")
}

func TestGoogleProvider_ExchangeCode(t *testing.T) {
	f := newFakeGoogle(t)

	tok, err := f.provider().ExchangeCode(context.Background(), "auth-code", "verifier-xyz")
	require.NoError(t, err)

	assert.Equal(t, "access-123", tok.AccessToken)
	assert.Equal(t, "refresh-456", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, "openid profile", tok.Scope)
	assert.NotNil(t, tok.ExpiresAt())

	assert.Equal(t, "auth-code", f.lastTokenForm.Get("code"))
	assert.Equal(t, "verifier-xyz", f.lastTokenForm.Get("code_verifier"))
	assert.Equal(t, "client-id", f.lastTokenForm.Get("client_id"))
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	f := newFakeGoogle(t)

	profile, err := f.provider().FetchProfile(context.Background(), "access-123")
	require.NoError(t, err)

	assert.Equal(t, &oauth2.Profile{Subject: "1234567890", Email: "alice@example.com", Name: "Alice"}, profile)
}

func TestGoogleProvider_FetchProfile_Unauthorized(t *testing.T) {
	f := newFakeGoogle(t)

	_, err := f.provider().FetchProfile(context.Background(), "wrong")

	assert.Error(t, err)
}

func TestGoogleProvider_RevokeToken(t *testing.T) {
	f := newFakeGoogle(t)

	require.NoError(t, f.provider().RevokeToken(context.Background(), "access-123"))
	assert.Equal(t, "access-123", f.lastRevokeForm.Get("token"))

	f.revokeStatus = http.StatusBadRequest
	err := f.provider().RevokeToken(context.Background(), "access-123")
	assert.ErrorIs(t, err, oauth2.ErrRevokeFailed)
}
