package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-backend/internal/config"
	"baccarat-backend/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(startTime)
	svc := services.NewJWTService(&config.Config{JWTSecret: "secret", JWTTTL: time.Hour}, clock)

	token, err := svc.GenerateToken(alice, "sess-1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Player)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, alice, claims.Subject)
}

func TestJWTExpires(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(startTime)
	svc := services.NewJWTService(&config.Config{JWTSecret: "secret", JWTTTL: time.Hour}, clock)

	token, err := svc.GenerateToken(alice, "sess-1")
	require.NoError(t, err)

	clock.Advance(61 * time.Minute).MustWait(context.Background())
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTRejectsForeignTokens(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(startTime)
	svc := services.NewJWTService(&config.Config{JWTSecret: "secret"}, clock)
	other := services.NewJWTService(&config.Config{JWTSecret: "other"}, clock)

	token, err := other.GenerateToken(alice, "sess-1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "wrong key")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, services.Claims{
		Player:           alice,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(startTime.Add(time.Hour))},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.Error(t, err, "alg none")

	_, err = svc.GenerateToken("", "sess-1")
	assert.Error(t, err)
}
