package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"baccarat-backend/internal/models"
)

// Slot is the per-player game slot.
type Slot struct {
	Player    string    `json:"player"`
	State     SlotState `json:"state"`
	GameID    string    `json:"game_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry stores commitments and the player slots that guard them.
type Registry struct {
	client *redis.Client
}

func NewRegistry(redisService *RedisService) *Registry {
	return &Registry{client: redisService.client}
}

func slotKey(player string) string {
	return fmt.Sprintf(KeySlot, player)
}

func commitmentKey(gameID string) string {
	return fmt.Sprintf(KeyCommitment, gameID)
}

func readSlot(ctx context.Context, get func(ctx context.Context, key string) *redis.StringCmd, player string) (*Slot, error) {
	data, err := get(ctx, slotKey(player)).Result()
	if errors.Is(err, redis.Nil) {
		return &Slot{Player: player, State: StateIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}

	var slot Slot
	if err := json.Unmarshal([]byte(data), &slot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slot: %w", err)
	}
	return &slot, nil
}

func (r *Registry) Slot(ctx context.Context, player string) (*Slot, error) {
	return readSlot(ctx, r.client.Get, player)
}

// Transition moves the player's slot from -> to. Leaving a non-idle state
// requires gameID to match the slot's game.
func (r *Registry) Transition(ctx context.Context, player string, from, to SlotState, gameID string, at time.Time) error {
	key := slotKey(player)
	return watch(ctx, r.client, func(tx *redis.Tx) error {
		slot, err := readSlot(ctx, tx.Get, player)
		if err != nil {
			return err
		}
		if err := checkTransition(slot.State, from, to); err != nil {
			return err
		}
		if from != StateIdle && slot.GameID != gameID {
			return fmt.Errorf("%w: slot holds game %s, not %s", ErrInvalidStateTransition, slot.GameID, gameID)
		}

		next := Slot{Player: player, State: to, UpdatedAt: at}
		if to != StateIdle {
			next.GameID = gameID
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if to == StateIdle {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}, key)
}

// SaveCommitment records a new commitment. Commitments are immutable apart
// from the one-time entropy assignment.
func (r *Registry) SaveCommitment(ctx context.Context, c *models.Commitment) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal commitment: %w", err)
	}

	created, err := r.client.SetNX(ctx, commitmentKey(c.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save commitment: %w", err)
	}
	if !created {
		return fmt.Errorf("commitment %s already recorded", c.ID)
	}

	return r.client.ZAdd(ctx, KeyPendingCommitments, redis.Z{
		Score:  float64(c.CreatedAt.UnixNano()),
		Member: c.ID,
	}).Err()
}

func readCommitment(ctx context.Context, get func(ctx context.Context, key string) *redis.StringCmd, gameID string) (*models.Commitment, error) {
	data, err := get(ctx, commitmentKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}

	var c models.Commitment
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal commitment: %w", err)
	}
	return &c, nil
}

func (r *Registry) Commitment(ctx context.Context, gameID string) (*models.Commitment, error) {
	return readCommitment(ctx, r.client.Get, gameID)
}

// AssignEntropy stores reveal entropy once, while the player's slot still
// holds gameID as committed. If entropy was already assigned the stored
// value wins and is returned.
func (r *Registry) AssignEntropy(ctx context.Context, player, gameID, entropy string, at time.Time) (*models.Commitment, error) {
	key, sKey := commitmentKey(gameID), slotKey(player)
	var out *models.Commitment

	err := watch(ctx, r.client, func(tx *redis.Tx) error {
		c, err := readCommitment(ctx, tx.Get, gameID)
		if err != nil {
			return err
		}
		if c.RevealEntropy != "" {
			out = c
			return nil
		}

		slot, err := readSlot(ctx, tx.Get, player)
		if err != nil {
			return err
		}
		if slot.State != StateCommitted || slot.GameID != gameID {
			return fmt.Errorf("%w: slot is %s for game %q", ErrInvalidStateTransition, slot.State, slot.GameID)
		}

		c.RevealEntropy = entropy
		c.RevealedAt = at
		updated, err := json.Marshal(c)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			pipe.ZRem(ctx, KeyPendingCommitments, gameID)
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}, key, sKey)

	return out, err
}

// Abandon releases a committed slot whose entropy was never sampled. It
// reports false, without changes, when the game has been revealed or the
// slot no longer holds it. Abandon and AssignEntropy exclude each other.
func (r *Registry) Abandon(ctx context.Context, player, gameID string) (bool, error) {
	key, sKey := commitmentKey(gameID), slotKey(player)
	abandoned := false

	err := watch(ctx, r.client, func(tx *redis.Tx) error {
		abandoned = false
		c, err := readCommitment(ctx, tx.Get, gameID)
		if err != nil {
			return err
		}
		if c.RevealEntropy != "" {
			return nil
		}

		slot, err := readSlot(ctx, tx.Get, player)
		if err != nil {
			return err
		}
		holds := slot.State == StateCommitted && slot.GameID == gameID

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if holds {
				pipe.Del(ctx, sKey)
			}
			pipe.ZRem(ctx, KeyPendingCommitments, gameID)
			pipe.Expire(ctx, key, TTLGameResult)
			return nil
		})
		if err == nil {
			abandoned = holds
		}
		return err
	}, key, sKey)

	return abandoned, err
}

// Pending lists unrevealed commitment IDs created at or before cutoff.
func (r *Registry) Pending(ctx context.Context, cutoff time.Time) ([]string, error) {
	return r.client.ZRangeByScore(ctx, KeyPendingCommitments, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff.UnixNano()),
	}).Result()
}

func (r *Registry) ClearPending(ctx context.Context, gameID string) error {
	return r.client.ZRem(ctx, KeyPendingCommitments, gameID).Err()
}

// DeleteCommitment removes a commitment that never reached the log.
func (r *Registry) DeleteCommitment(ctx context.Context, gameID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, commitmentKey(gameID))
	pipe.ZRem(ctx, KeyPendingCommitments, gameID)
	_, err := pipe.Exec(ctx)
	return err
}

// ExpireCommitment keeps a finished commitment around as long as its result.
func (r *Registry) ExpireCommitment(ctx context.Context, gameID string) error {
	return r.client.Expire(ctx, commitmentKey(gameID), TTLGameResult).Err()
}

// MarkPaid claims the payout of a game; it returns false if already claimed.
func (r *Registry) MarkPaid(ctx context.Context, gameID string) (bool, error) {
	return r.client.SetNX(ctx, fmt.Sprintf(KeyGamePaid, gameID), "1", TTLGameResult).Result()
}

func (r *Registry) UnmarkPaid(ctx context.Context, gameID string) error {
	return r.client.Del(ctx, fmt.Sprintf(KeyGamePaid, gameID)).Err()
}
