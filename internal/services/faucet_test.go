package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
)

func TestFaucetCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.faucet.Claim(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1000", env.balance(t, alice))

	env.clock.Advance(23 * time.Hour).MustWait(ctx)
	_, err = env.faucet.Claim(ctx, alice)
	assert.ErrorIs(t, err, services.ErrCooldownNotElapsed)
	assert.Equal(t, "1000", env.balance(t, alice))

	env.clock.Advance(time.Hour).MustWait(ctx)
	_, err = env.faucet.Claim(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "2000", env.balance(t, alice))

	cd, err := env.faucet.Cooldown(ctx, alice)
	require.NoError(t, err)
	assert.True(t, startTime.Add(24*time.Hour).Equal(cd.LastClaim))
	assert.Equal(t, int64(86400), cd.PeriodSeconds)

	txs, err := env.redis.GetPlayerTransactions(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, models.TransactionTypeClaim, txs[0].Type)
}

func TestFaucetCooldownIsPerPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.faucet.Claim(ctx, alice)
	require.NoError(t, err)
	_, err = env.faucet.Claim(ctx, bob)
	require.NoError(t, err)

	next, err := env.faucet.NextClaimTime(ctx, bob)
	require.NoError(t, err)
	assert.True(t, startTime.Add(24*time.Hour).Equal(next))
}

func TestFaucetClaimLogsUnrecordedTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.mr.Set(fmt.Sprintf(services.KeyPlayerTransactions, alice), "not-a-zset"))

	amount, err := env.faucet.Claim(ctx, alice)
	require.NoError(t, err, "the mint already happened")
	assert.Equal(t, "1000", amount.String())
	assert.Equal(t, "1000", env.balance(t, alice))

	assert.Contains(t, env.logs.String(), "failed to record transaction")
	assert.Contains(t, env.logs.String(), "player=alice")
}
