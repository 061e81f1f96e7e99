package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"

	"baccarat-backend/internal/models"
)

// Faucet hands out free chips once per cooldown period.
type Faucet struct {
	client *redis.Client
	redis  *RedisService
	clock  quartz.Clock
	amount sdkmath.Uint
	period time.Duration
	logger *log.Logger
}

// NewFaucet pays amount per period. A nil logger discards.
func NewFaucet(redisService *RedisService, clock quartz.Clock, amount sdkmath.Uint, period time.Duration, logger *log.Logger) *Faucet {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Faucet{
		client: redisService.client,
		redis:  redisService,
		clock:  clock,
		amount: amount,
		period: period,
		logger: logger,
	}
}

func cooldownKey(player string) string {
	return fmt.Sprintf(KeyClaimCooldown, player)
}

func (f *Faucet) Cooldown(ctx context.Context, player string) (models.ClaimCooldown, error) {
	cd := models.ClaimCooldown{Player: player, PeriodSeconds: int64(f.period / time.Second)}

	raw, err := f.client.Get(ctx, cooldownKey(player)).Result()
	if errors.Is(err, redis.Nil) {
		return cd, nil
	}
	if err != nil {
		return cd, fmt.Errorf("failed to read cooldown: %w", err)
	}

	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return cd, fmt.Errorf("corrupt cooldown for %s: %w", player, err)
	}
	cd.LastClaim = time.Unix(last, 0).UTC()
	return cd, nil
}

// NextClaimTime is the zero time when the player has never claimed.
func (f *Faucet) NextClaimTime(ctx context.Context, player string) (time.Time, error) {
	cd, err := f.Cooldown(ctx, player)
	if err != nil {
		return time.Time{}, err
	}
	return cd.NextClaimTime(), nil
}

// Claim mints the faucet amount to player and restarts the cooldown.
func (f *Faucet) Claim(ctx context.Context, player string) (sdkmath.Uint, error) {
	cdKey, balKey := cooldownKey(player), balanceKey(player)
	now := f.clock.Now().UTC()

	err := watch(ctx, f.client, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, cdKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			last, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				return fmt.Errorf("corrupt cooldown for %s: %w", player, perr)
			}
			next := time.Unix(last, 0).Add(f.period)
			if now.Before(next) {
				return fmt.Errorf("%w: next claim at %s", ErrCooldownNotElapsed, next.UTC().Format(time.RFC3339))
			}
		}

		balance, err := readAmount(ctx, tx.Get, balKey)
		if err != nil {
			return err
		}
		updated, err := credit(player, balance, f.amount)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cdKey, strconv.FormatInt(now.Unix(), 10), 0)
			pipe.Set(ctx, balKey, updated.String(), 0)
			return nil
		})
		return err
	}, cdKey, balKey)
	if err != nil {
		return sdkmath.Uint{}, err
	}

	err = f.redis.SaveTransaction(ctx, &models.Transaction{
		ID:          models.GenerateTransactionID(),
		Player:      player,
		Type:        models.TransactionTypeClaim,
		Amount:      f.amount,
		Description: "Claimed free chips",
		CreatedAt:   now,
	})
	if err != nil {
		f.logger.Warn("failed to record transaction", "player", player, "type", models.TransactionTypeClaim, "err", err)
	}

	return f.amount, nil
}
