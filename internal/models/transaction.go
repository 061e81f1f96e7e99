package models

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type TransactionType string

const (
	TransactionTypeBet    TransactionType = "bet"
	TransactionTypeWin    TransactionType = "win"
	TransactionTypePush   TransactionType = "push"
	TransactionTypeRefund TransactionType = "refund"
	TransactionTypeClaim  TransactionType = "claim"
)

type Transaction struct {
	ID          string          `json:"id"`
	Player      string          `json:"player"`
	Type        TransactionType `json:"type"`
	Amount      sdkmath.Uint    `json:"amount"`
	GameID      string          `json:"game_id,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
