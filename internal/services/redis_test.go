package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/config"
	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
)

func TestNewRedisServiceUnreachable(t *testing.T) {
	_, err := services.NewRedisService(&config.Config{RedisURL: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestPlayerSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := &models.PlayerSession{SessionID: "s1", Player: alice, CreatedAt: startTime, LastAccessed: startTime}
	require.NoError(t, env.redis.StorePlayerSession(ctx, session, time.Hour))

	got, err := env.redis.GetPlayerSession(ctx, alice, "s1")
	require.NoError(t, err)
	assert.Equal(t, alice, got.Player)

	touchedAt := startTime.Add(10 * time.Minute)
	require.NoError(t, env.redis.TouchPlayerSession(ctx, got, touchedAt))
	got, err = env.redis.GetPlayerSession(ctx, alice, "s1")
	require.NoError(t, err)
	assert.True(t, got.LastAccessed.Equal(touchedAt))
	assert.True(t, got.CreatedAt.Equal(startTime))
	assert.Equal(t, time.Hour, env.mr.TTL(fmt.Sprintf(services.KeyPlayerSession, alice, "s1")), "touch keeps the expiry")

	again, err := env.redis.GetPlayerSession(ctx, alice, "s1")
	require.NoError(t, err)
	assert.True(t, again.LastAccessed.Equal(touchedAt), "reads do not touch")

	require.NoError(t, env.redis.DeletePlayerSession(ctx, alice, "s1"))
	_, err = env.redis.GetPlayerSession(ctx, alice, "s1")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestSaveGameResultIsWriteOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := &models.GameResult{GameID: "g1", Player: alice, Winner: baccarat.WinnerPlayer, Payout: sdkmath.NewUint(20), Stake: sdkmath.NewUint(10)}
	stored, err := env.redis.SaveGameResult(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "20", stored.Payout.String())

	second := *first
	second.Payout = sdkmath.NewUint(999)
	stored, err = env.redis.SaveGameResult(ctx, &second)
	require.NoError(t, err)
	assert.Equal(t, "20", stored.Payout.String(), "existing result wins")

	_, err = env.redis.GetGameResult(ctx, "g2")
	assert.ErrorIs(t, err, services.ErrGameNotFound)
}

func TestHistoryIsTrimmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < services.MaxHistory+5; i++ {
		require.NoError(t, env.redis.CompleteGame(ctx, alice, models.GenerateGameID(), startTime.Add(time.Duration(i)*time.Second)))
	}
	count, err := env.mr.ZMembers("player:alice:completed_games")
	require.NoError(t, err)
	assert.Len(t, count, services.MaxHistory)
}

func TestCheckRateLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := env.redis.CheckRateLimit(ctx, alice, "bet", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := env.redis.CheckRateLimit(ctx, alice, "bet", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.redis.CheckRateLimit(ctx, bob, "bet", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "limits are per player")

	env.mr.FastForward(time.Minute)
	ok, err = env.redis.CheckRateLimit(ctx, alice, "bet", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window expired")
}
