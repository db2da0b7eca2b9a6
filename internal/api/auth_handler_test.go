package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointco/waypoint-api/internal/config"
	"github.com/waypointco/waypoint-api/internal/service/auth"
	"github.com/waypointco/waypoint-api/internal/testutils"
)

func newAuthHandlerFixture(t *testing.T) (*AuthHandler, *testutils.FakeUserStore) {
	t.Helper()

	userStore := testutils.NewFakeUserStore()
	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "test-secret-key-that-is-long-enough!",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	hasher := auth.NewBcryptHasher()
	return NewAuthHandler(userStore, jwtService, hasher, hasher), userStore
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Run("creates user and returns token", func(t *testing.T) {
		handler, userStore := newAuthHandlerFixture(t)

		rec := postJSON(t, handler.Register, "/api/auth/register",
			`{"email": "new@example.com", "password": "password123"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.Token)

		// The stored user carries a hash, never the plaintext.
		stored, err := userStore.GetByEmail(context.Background(), "new@example.com")
		require.NoError(t, err)
		assert.Empty(t, stored.Password)
		assert.NotEmpty(t, stored.HashedPassword)
		assert.NotEqual(t, "password123", stored.HashedPassword)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		handler, _ := newAuthHandlerFixture(t)

		first := postJSON(t, handler.Register, "/api/auth/register",
			`{"email": "dup@example.com", "password": "password123"}`)
		require.Equal(t, http.StatusCreated, first.Code)

		second := postJSON(t, handler.Register, "/api/auth/register",
			`{"email": "dup@example.com", "password": "password456"}`)
		assert.Equal(t, http.StatusConflict, second.Code)
	})

	t.Run("invalid email returns 400", func(t *testing.T) {
		handler, _ := newAuthHandlerFixture(t)

		rec := postJSON(t, handler.Register, "/api/auth/register",
			`{"email": "not-an-email", "password": "password123"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password returns 400", func(t *testing.T) {
		handler, _ := newAuthHandlerFixture(t)

		rec := postJSON(t, handler.Register, "/api/auth/register",
			`{"email": "new@example.com", "password": "short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	register := func(t *testing.T, handler *AuthHandler) {
		t.Helper()
		rec := postJSON(t, handler.Register, "/api/auth/register",
			`{"email": "user@example.com", "password": "password123"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("valid credentials return token", func(t *testing.T) {
		handler, _ := newAuthHandlerFixture(t)
		register(t, handler)

		rec := postJSON(t, handler.Login, "/api/auth/login",
			`{"email": "user@example.com", "password": "password123"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		handler, _ := newAuthHandlerFixture(t)
		register(t, handler)

		rec := postJSON(t, handler.Login, "/api/auth/login",
			`{"email": "user@example.com", "password": "wrong-password"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email returns the same 401", func(t *testing.T) {
		handler, _ := newAuthHandlerFixture(t)
		register(t, handler)

		rec := postJSON(t, handler.Login, "/api/auth/login",
			`{"email": "ghost@example.com", "password": "password123"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
