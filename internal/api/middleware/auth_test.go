package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointco/waypoint-api/internal/service/auth"
)

// stubJWTService validates any token equal to acceptToken, returning claims
// for userID, and fails everything else with failErr.
type stubJWTService struct {
	acceptToken string
	userID      uuid.UUID
	failErr     error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.acceptToken, nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if token == s.acceptToken {
		return &auth.Claims{UserID: s.userID}, nil
	}
	if s.failErr != nil {
		return nil, s.failErr
	}
	return nil, auth.ErrInvalidToken
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	jwtService := &stubJWTService{acceptToken: "good-token", userID: userID}
	middleware := NewAuthMiddleware(jwtService)

	var capturedUserID uuid.UUID
	var handlerCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserID, _ = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	protected := middleware.Authenticate(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantCalled bool
	}{
		{"valid bearer token", "Bearer good-token", http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized, false},
		{"no token after scheme", "Bearer", http.StatusUnauthorized, false},
		{"invalid token", "Bearer bad-token", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			capturedUserID = uuid.Nil

			req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			if tt.wantCalled {
				assert.Equal(t, userID, capturedUserID)
			}
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	jwtService := &stubJWTService{acceptToken: "good", failErr: auth.ErrExpiredToken}
	middleware := NewAuthMiddleware(jwtService)

	protected := middleware.Authenticate(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run for an expired token")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired")
}
