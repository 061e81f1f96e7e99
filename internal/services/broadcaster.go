package services

import (
	sdkmath "cosmossdk.io/math"

	"baccarat-backend/internal/models"
)

// EventPublisher receives game events. For a given game GameCompleted is
// always delivered before Payout.
type EventPublisher interface {
	GameCompleted(result *models.GameResult)
	Payout(player, gameID string, amount sdkmath.Uint)
}

type NopPublisher struct{}

func (NopPublisher) GameCompleted(*models.GameResult)    {}
func (NopPublisher) Payout(string, string, sdkmath.Uint) {}
