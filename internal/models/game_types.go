package models

import "baccarat-backend/internal/baccarat"

// BetRequest leaves BetType nil when the field is omitted, so a missing side
// is rejected instead of defaulting to Player.
type BetRequest struct {
	BetType        *baccarat.BetType `json:"bet_type"`
	Stake          string            `json:"stake" binding:"required"`
	SeedCommitment string            `json:"seed_commitment" binding:"required"`
}

type RevealRequest struct {
	GameID         string `json:"game_id" binding:"required"`
	SeedCommitment string `json:"seed_commitment" binding:"required"`
}

// VerifyRequest prices a payout only when Stake is set; BetType is then
// required.
type VerifyRequest struct {
	SeedCommitment string            `json:"seed_commitment" binding:"required"`
	RevealEntropy  string            `json:"reveal_entropy" binding:"required"`
	Decks          int               `json:"decks"`
	BetType        *baccarat.BetType `json:"bet_type"`
	Stake          string            `json:"stake"`
}

type VerifyResponse struct {
	ShoeSeed    string          `json:"shoe_seed"`
	PlayerHand  baccarat.Hand   `json:"player_hand"`
	BankerHand  baccarat.Hand   `json:"banker_hand"`
	PlayerTotal int             `json:"player_total"`
	BankerTotal int             `json:"banker_total"`
	Winner      baccarat.Winner `json:"winner"`
	Payout      string          `json:"payout"`
	Push        bool            `json:"push"`
}

type ApproveRequest struct {
	Amount string `json:"amount" binding:"required"`
}
