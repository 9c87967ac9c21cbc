package services

import (
	"testing"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	clock := quartz.NewMock(t)
	tokens := NewJWTTokenManager(testSecret, time.Hour, clock)
	player := &models.Player{ID: uuid.New(), Name: "anna", IsAdmin: true}

	token, expiresAt, err := tokens.Issue(player)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour).Unix(), expiresAt.Unix())

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, player.ID, claims.PlayerID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "anna", claims.Name)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestTokenExpires(t *testing.T) {
	clock := quartz.NewMock(t)
	tokens := NewJWTTokenManager(testSecret, time.Hour, clock)

	token, _, err := tokens.Issue(&models.Player{ID: uuid.New(), Name: "anna"})
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = tokens.Parse(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenRejectsForeignSignatures(t *testing.T) {
	clock := quartz.NewMock(t)
	tokens := NewJWTTokenManager(testSecret, time.Hour, clock)
	other := NewJWTTokenManager("another-secret-another-secret", time.Hour, clock)

	token, _, err := other.Issue(&models.Player{ID: uuid.New()})
	require.NoError(t, err)
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"player_id": uuid.NewString(),
		"exp":       clock.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
