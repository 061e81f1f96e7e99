// Package sqlite is the durable commitment log: an append-only record of
// every commitment, reveal and result, fsynced before a write returns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
	"baccarat-backend/internal/storage/sqlite/migrations"
)

// ErrConflict is returned when an append disagrees with what is already
// recorded for the game.
var ErrConflict = errors.New("conflicting log entry")

// Store implements services.CommitmentLog.
type Store struct {
	sqlDB *sql.DB
}

var _ services.CommitmentLog = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the log at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) AppendCommitment(ctx context.Context, c *models.Commitment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("commitment id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO commitments (
		   game_id,
		   player,
		   bet_type,
		   stake,
		   seed_commitment,
		   decks,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Player,
		int(c.BetType),
		c.Stake.String(),
		c.SeedCommitment,
		c.Decks,
		toMillis(c.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: commitment %s already logged", ErrConflict, c.ID)
		}
		return fmt.Errorf("append commitment: %w", err)
	}
	return nil
}

func (s *Store) HasCommitment(ctx context.Context, gameID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM commitments WHERE game_id = ?`, gameID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup commitment: %w", err)
	}
	return true, nil
}

// AppendReveal records a game's reveal entropy. Repeating the same entry is a
// no-op; a different entropy for the same game is a conflict.
func (s *Store) AppendReveal(ctx context.Context, gameID, entropy string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO reveals (game_id, reveal_entropy, revealed_at) VALUES (?, ?, ?)`,
		gameID, entropy, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("append reveal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var stored string
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT reveal_entropy FROM reveals WHERE game_id = ?`, gameID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("read reveal: %w", err)
	}
	if stored != entropy {
		return fmt.Errorf("%w: reveal for %s already logged", ErrConflict, gameID)
	}
	return nil
}

// AppendResult records a game result once; later appends are ignored.
func (s *Store) AppendResult(ctx context.Context, result *models.GameResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO results (
		   game_id,
		   player,
		   winner,
		   payout,
		   payload,
		   resolved_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		result.GameID,
		result.Player,
		int(result.Winner),
		result.Payout.String(),
		string(payload),
		toMillis(result.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

func (s *Store) Result(ctx context.Context, gameID string) (*models.GameResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM results WHERE game_id = ?`, gameID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", services.ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}

	var result models.GameResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// Commitment reads back a logged commitment with its reveal, if any.
func (s *Store) Commitment(ctx context.Context, gameID string) (*models.Commitment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		c         models.Commitment
		betType   int
		stake     string
		createdAt int64
		entropy   sql.NullString
		revealed  sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT c.game_id, c.player, c.bet_type, c.stake, c.seed_commitment, c.decks, c.created_at,
		        r.reveal_entropy, r.revealed_at
		   FROM commitments c
		   LEFT JOIN reveals r ON r.game_id = c.game_id
		  WHERE c.game_id = ?`, gameID,
	).Scan(&c.ID, &c.Player, &betType, &stake, &c.SeedCommitment, &c.Decks, &createdAt, &entropy, &revealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", services.ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("read commitment: %w", err)
	}

	c.Stake, err = models.ParseAmount(stake)
	if err != nil {
		return nil, fmt.Errorf("corrupt stake for %s: %w", gameID, err)
	}
	c.BetType = baccarat.BetType(betType)
	c.CreatedAt = fromMillis(createdAt)
	if entropy.Valid {
		c.RevealEntropy = entropy.String
		c.RevealedAt = fromMillis(revealed.Int64)
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
