package services

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/redis/go-redis/v9"

	"baccarat-backend/internal/baccarat"
)

// Ledger is the token ledger the game settles against.
type Ledger interface {
	BalanceOf(ctx context.Context, account string) (sdkmath.Uint, error)
	Allowance(ctx context.Context, owner, spender string) (sdkmath.Uint, error)
	Approve(ctx context.Context, owner, spender string, amount sdkmath.Uint) error
	TransferFrom(ctx context.Context, spender, from, to string, amount sdkmath.Uint) error
	Transfer(ctx context.Context, from, to string, amount sdkmath.Uint) error
}

const maxTxRetries = 16

// RedisLedger keeps balances and allowances as decimal strings and applies
// every update as a WATCH/MULTI transaction.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(redisService *RedisService) *RedisLedger {
	return &RedisLedger{client: redisService.client}
}

func balanceKey(account string) string {
	return fmt.Sprintf(KeyBalance, account)
}

func allowanceKey(owner, spender string) string {
	return fmt.Sprintf(KeyAllowance, owner, spender)
}

func readAmount(ctx context.Context, get func(ctx context.Context, key string) *redis.StringCmd, key string) (sdkmath.Uint, error) {
	s, err := get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return sdkmath.ZeroUint(), nil
	}
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	v, err := sdkmath.ParseUint(s)
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("corrupt amount at %s: %w", key, err)
	}
	return v, nil
}

// credit adds amount to balance, failing instead of exceeding 2^256-1.
func credit(account string, balance, amount sdkmath.Uint) (sdkmath.Uint, error) {
	if amount.GT(baccarat.MaxAmount().Sub(balance)) {
		return sdkmath.Uint{}, fmt.Errorf("%w: crediting %s to %s", ErrBalanceOverflow, amount, account)
	}
	return balance.Add(amount), nil
}

// watch runs fn under optimistic locking, retrying when a watched key moved.
func watch(ctx context.Context, client *redis.Client, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("transaction on %v aborted after %d attempts", keys, maxTxRetries)
}

func (l *RedisLedger) BalanceOf(ctx context.Context, account string) (sdkmath.Uint, error) {
	return readAmount(ctx, l.client.Get, balanceKey(account))
}

func (l *RedisLedger) Allowance(ctx context.Context, owner, spender string) (sdkmath.Uint, error) {
	return readAmount(ctx, l.client.Get, allowanceKey(owner, spender))
}

func (l *RedisLedger) Approve(ctx context.Context, owner, spender string, amount sdkmath.Uint) error {
	return l.client.Set(ctx, allowanceKey(owner, spender), amount.String(), 0).Err()
}

// Mint credits new tokens to an account.
func (l *RedisLedger) Mint(ctx context.Context, to string, amount sdkmath.Uint) error {
	key := balanceKey(to)
	return watch(ctx, l.client, func(tx *redis.Tx) error {
		balance, err := readAmount(ctx, tx.Get, key)
		if err != nil {
			return err
		}
		updated, err := credit(to, balance, amount)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated.String(), 0)
			return nil
		})
		return err
	}, key)
}

// SeedBalance sets an account's balance only if it has never been written.
func (l *RedisLedger) SeedBalance(ctx context.Context, account string, amount sdkmath.Uint) (bool, error) {
	return l.client.SetNX(ctx, balanceKey(account), amount.String(), 0).Result()
}

func (l *RedisLedger) Transfer(ctx context.Context, from, to string, amount sdkmath.Uint) error {
	return l.move(ctx, "", from, to, amount)
}

func (l *RedisLedger) TransferFrom(ctx context.Context, spender, from, to string, amount sdkmath.Uint) error {
	return l.move(ctx, spender, from, to, amount)
}

// move debits from and credits to; when spender is set it also consumes the
// owner's allowance. Allowance is checked before balance.
func (l *RedisLedger) move(ctx context.Context, spender, from, to string, amount sdkmath.Uint) error {
	fromKey, toKey := balanceKey(from), balanceKey(to)
	keys := []string{fromKey, toKey}
	var allowKey string
	if spender != "" {
		allowKey = allowanceKey(from, spender)
		keys = append(keys, allowKey)
	}

	return watch(ctx, l.client, func(tx *redis.Tx) error {
		var allowance sdkmath.Uint
		if allowKey != "" {
			var err error
			allowance, err = readAmount(ctx, tx.Get, allowKey)
			if err != nil {
				return err
			}
			if allowance.LT(amount) {
				return fmt.Errorf("%w: %s approved for %s, need %s", ErrInsufficientAllowance, allowance, spender, amount)
			}
		}

		fromBalance, err := readAmount(ctx, tx.Get, fromKey)
		if err != nil {
			return err
		}
		if fromBalance.LT(amount) {
			return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance, amount)
		}

		toBalance, err := readAmount(ctx, tx.Get, toKey)
		if err != nil {
			return err
		}
		if from != to {
			if toBalance, err = credit(to, toBalance, amount); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if from != to {
				pipe.Set(ctx, fromKey, fromBalance.Sub(amount).String(), 0)
				pipe.Set(ctx, toKey, toBalance.String(), 0)
			}
			if allowKey != "" {
				pipe.Set(ctx, allowKey, allowance.Sub(amount).String(), 0)
			}
			return nil
		})
		return err
	}, keys...)
}
