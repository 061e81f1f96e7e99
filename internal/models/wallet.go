package models

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type BalanceResponse struct {
	Player    string       `json:"player"`
	Balance   sdkmath.Uint `json:"balance"`
	Allowance sdkmath.Uint `json:"allowance"`
	Formatted string       `json:"formatted"`
}

// ClaimCooldown is the faucet state for one player.
type ClaimCooldown struct {
	Player        string    `json:"player"`
	LastClaim     time.Time `json:"last_claim"`
	PeriodSeconds int64     `json:"period_seconds"`
}

func (c ClaimCooldown) NextClaimTime() time.Time {
	if c.LastClaim.IsZero() {
		return time.Time{}
	}
	return c.LastClaim.Add(time.Duration(c.PeriodSeconds) * time.Second)
}
