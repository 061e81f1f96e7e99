package models

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"baccarat-backend/internal/baccarat"
)

// Commitment is a bet bound to the player's seed commitment before any
// outcome-influencing entropy exists. RevealEntropy is filled exactly once.
type Commitment struct {
	ID             string           `json:"id"`
	Player         string           `json:"player"`
	BetType        baccarat.BetType `json:"bet_type"`
	Stake          sdkmath.Uint     `json:"stake"`
	SeedCommitment string           `json:"seed_commitment"`
	Decks          int              `json:"decks"`
	CreatedAt      time.Time        `json:"created_at"`

	RevealEntropy string    `json:"reveal_entropy,omitempty"`
	RevealedAt    time.Time `json:"revealed_at"`
}

// GameResult is immutable once written.
type GameResult struct {
	GameID         string           `json:"game_id"`
	Player         string           `json:"player"`
	BetType        baccarat.BetType `json:"bet_type"`
	Stake          sdkmath.Uint     `json:"stake"`
	PlayerHand     baccarat.Hand    `json:"player_hand"`
	BankerHand     baccarat.Hand    `json:"banker_hand"`
	PlayerTotal    int              `json:"player_total"`
	BankerTotal    int              `json:"banker_total"`
	Natural        bool             `json:"natural"`
	Winner         baccarat.Winner  `json:"winner"`
	Payout         sdkmath.Uint     `json:"payout"`
	Push           bool             `json:"push"`
	SeedCommitment string           `json:"seed_commitment"`
	RevealEntropy  string           `json:"reveal_entropy"`
	Decks          int              `json:"decks"`
	ResolvedAt     time.Time        `json:"resolved_at"`
}

func NewGameResult(c *Commitment, round baccarat.Round, outcome baccarat.Outcome, resolvedAt time.Time) *GameResult {
	return &GameResult{
		GameID:         c.ID,
		Player:         c.Player,
		BetType:        c.BetType,
		Stake:          c.Stake,
		PlayerHand:     round.Player,
		BankerHand:     round.Banker,
		PlayerTotal:    round.PlayerTotal,
		BankerTotal:    round.BankerTotal,
		Natural:        round.Natural,
		Winner:         outcome.Winner,
		Payout:         outcome.Payout,
		Push:           outcome.Push,
		SeedCommitment: c.SeedCommitment,
		RevealEntropy:  c.RevealEntropy,
		Decks:          c.Decks,
		ResolvedAt:     resolvedAt,
	}
}
