package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"baccarat-backend/internal/config"
	"baccarat-backend/internal/models"
)

type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

// NewRedisServiceWithClient wraps an existing client without pinging it.
func NewRedisServiceWithClient(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) StorePlayerSession(ctx context.Context, session *models.PlayerSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyPlayerSession, session.Player, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, expiry).Err()
}

func (s *RedisService) GetPlayerSession(ctx context.Context, player, sessionID string) (*models.PlayerSession, error) {
	key := fmt.Sprintf(KeyPlayerSession, player, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.PlayerSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// TouchPlayerSession records at as the session's last access without
// extending its expiry.
func (s *RedisService) TouchPlayerSession(ctx context.Context, session *models.PlayerSession, at time.Time) error {
	key := fmt.Sprintf(KeyPlayerSession, session.Player, session.SessionID)

	session.LastAccessed = at
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, key, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *RedisService) DeletePlayerSession(ctx context.Context, player, sessionID string) error {
	key := fmt.Sprintf(KeyPlayerSession, player, sessionID)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) SaveGameResult(ctx context.Context, result *models.GameResult) (*models.GameResult, error) {
	key := fmt.Sprintf(KeyGameResult, result.GameID)

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game result: %w", err)
	}

	// Results are write-once; a retried resolve gets the stored copy back.
	created, err := s.client.SetNX(ctx, key, data, TTLGameResult).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to save game result: %w", err)
	}
	if !created {
		return s.GetGameResult(ctx, result.GameID)
	}

	return result, nil
}

func (s *RedisService) GetGameResult(ctx context.Context, gameID string) (*models.GameResult, error) {
	key := fmt.Sprintf(KeyGameResult, gameID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game result: %w", err)
	}

	var result models.GameResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game result: %w", err)
	}

	return &result, nil
}

func (s *RedisService) CompleteGame(ctx context.Context, player, gameID string, at time.Time) error {
	completedKey := fmt.Sprintf(KeyPlayerCompletedGames, player)
	if err := s.client.ZAdd(ctx, completedKey, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: gameID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to completed games: %w", err)
	}

	s.client.ZRemRangeByRank(ctx, completedKey, 0, -(MaxHistory + 1))

	return nil
}

func (s *RedisService) GetGameHistory(ctx context.Context, player string, limit int64) ([]*models.GameResult, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = 50
	}

	completedKey := fmt.Sprintf(KeyPlayerCompletedGames, player)

	gameIDs, err := s.client.ZRevRange(ctx, completedKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs: %w", err)
	}

	return s.BulkGetGameResults(ctx, gameIDs)
}

func (s *RedisService) BulkGetGameResults(ctx context.Context, gameIDs []string) ([]*models.GameResult, error) {
	results := []*models.GameResult{}
	if len(gameIDs) == 0 {
		return results, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(gameIDs))
	for i, gameID := range gameIDs {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyGameResult, gameID))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var result models.GameResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			continue
		}

		results = append(results, &result)
	}

	return results, nil
}

func (s *RedisService) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	userTxKey := fmt.Sprintf(KeyPlayerTransactions, tx.Player)
	if err := s.client.ZAdd(ctx, userTxKey, redis.Z{
		Score:  float64(tx.CreatedAt.UnixNano()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to player transactions: %w", err)
	}

	// Keep only the most recent entries
	s.client.ZRemRangeByRank(ctx, userTxKey, 0, -(MaxHistory + 1))

	return nil
}

func (s *RedisService) GetPlayerTransactions(ctx context.Context, player string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyPlayerTransactions, player)

	txIDs, err := s.client.ZRevRange(ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %w", err)
	}

	transactions := []*models.Transaction{}
	for _, txID := range txIDs {
		data, err := s.client.Get(ctx, fmt.Sprintf(KeyTransaction, txID)).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisService) CheckRateLimit(ctx context.Context, player, action string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf(KeyRateLimit, player, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, player, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, player, action)).Err()
}
