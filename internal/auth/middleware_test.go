package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/auth"
)

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(testKey, "navgate", 24, 168)
}

// serve runs one request through the middleware and returns the recorder
// and the identity the inner handler saw, if it was reached.
func serve(t *testing.T, mw func(http.Handler) http.Handler, authorization string) (*httptest.ResponseRecorder, *auth.Identity) {
	t.Helper()
	var got *auth.Identity
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.GetIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, got
}

func TestMiddleware_CarriesUserRecord(t *testing.T) {
	svc := newTestTokenService()
	token, err := svc.CreateAccessToken(&auth.Identity{
		UserID: "u-buyer",
		User: map[string]any{
			"name": "Ada",
			"role": map[string]any{"id": "5e7a", "roleKey": "Buyer"},
		},
	})
	require.NoError(t, err)

	w, got := serve(t, auth.Middleware(svc), "bearer "+token)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u-buyer", got.UserID)
	role, ok := got.User["role"].(map[string]any)
	require.True(t, ok, "role should survive the token round trip as an object")
	assert.Equal(t, "Buyer", role["roleKey"])
}

func TestMiddleware_Rejects(t *testing.T) {
	svc := newTestTokenService()
	refresh, err := svc.CreateRefreshToken(&auth.Identity{UserID: "u-1"})
	require.NoError(t, err)
	foreign, err := auth.NewTokenService("another-signing-key-of-32-chars!!", "navgate", 1, 1).
		CreateAccessToken(&auth.Identity{UserID: "u-1"})
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantError     string
	}{
		{"no header", "", "missing authorization header"},
		{"basic scheme", "Basic abc", "invalid authorization header format"},
		{"empty bearer", "Bearer  ", "invalid authorization header format"},
		{"garbage token", "Bearer not-a-jwt", "invalid token"},
		{"wrong key", "Bearer " + foreign, "invalid token"},
		{"refresh token", "Bearer " + refresh, "access token required"},
		{"dev token outside dev mode", "Bearer dev", "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, got := serve(t, auth.Middleware(svc), tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, got)
			assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestMiddleware_DevIdentity(t *testing.T) {
	dev := &auth.Identity{
		UserID: "dev-user",
		User:   map[string]any{"role": map[string]any{"roleKey": "SuperAdmin"}},
	}

	w, got := serve(t, auth.Middleware(newTestTokenService(), auth.WithDevIdentity(dev)), "Bearer dev")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Same(t, dev, got)

	w, got = serve(t, auth.Middleware(newTestTokenService(), auth.WithDevIdentity(nil)), "Bearer dev")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, got)
}
