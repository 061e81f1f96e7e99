package services

import (
	"context"
	"time"

	"baccarat-backend/internal/models"
)

// CommitmentLog is the durable append-only record of commitments, reveals and
// results. AppendCommitment must not return until the entry is persisted.
type CommitmentLog interface {
	AppendCommitment(ctx context.Context, c *models.Commitment) error
	HasCommitment(ctx context.Context, gameID string) (bool, error)
	AppendReveal(ctx context.Context, gameID, entropy string, at time.Time) error
	AppendResult(ctx context.Context, result *models.GameResult) error
	Result(ctx context.Context, gameID string) (*models.GameResult, error)
}
