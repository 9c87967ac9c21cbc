package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/services"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) (services.TokenManager, *quartz.Mock) {
	clock := quartz.NewMock(t)
	return services.NewJWTTokenManager("middleware-test-secret-key", time.Hour, clock), clock
}

func echoPlayer(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetPlayerIDFromContext(r.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(id.String()))
	})
}

func TestAuthenticate(t *testing.T) {
	tokens, clock := newTokens(t)
	player := &models.Player{ID: uuid.New(), Name: "anna"}
	token, _, err := tokens.Issue(player)
	require.NoError(t, err)

	handler := Authenticate(tokens)(echoPlayer(t))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, player.ID.String(), rec.Body.String())
			}
		})
	}

	clock.Advance(2 * time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	tokens, _ := newTokens(t)
	adminToken, _, err := tokens.Issue(&models.Player{ID: uuid.New(), IsAdmin: true})
	require.NoError(t, err)
	userToken, _, err := tokens.Issue(&models.Player{ID: uuid.New()})
	require.NoError(t, err)

	handler := Authenticate(tokens)(RequireAdmin(echoPlayer(t)))

	for token, status := range map[string]int{adminToken: http.StatusOK, userToken: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/games", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code)
	}

	rec := httptest.NewRecorder()
	RequireAdmin(echoPlayer(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
