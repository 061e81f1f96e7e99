package services

import (
	"errors"

	"baccarat-backend/internal/baccarat"
)

var (
	ErrInvalidBetType = baccarat.ErrInvalidBetType
	ErrZeroStake      = baccarat.ErrZeroStake
	ErrShoeExhausted  = baccarat.ErrShoeExhausted

	ErrGameInProgress         = errors.New("game already in progress")
	ErrRevealMismatch         = errors.New("reveal does not match a recorded commitment")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientAllowance  = errors.New("insufficient allowance")
	ErrBalanceOverflow        = errors.New("balance would exceed 256 bits")
	ErrCooldownNotElapsed     = errors.New("claim cooldown not elapsed")

	ErrStakeOutOfRange   = errors.New("stake out of range")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCommitment = errors.New("invalid seed commitment")
	ErrGameNotFound      = errors.New("game not found")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrSessionNotFound   = errors.New("session not found")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidBetType, "invalid_bet_type"},
	{ErrZeroStake, "zero_stake"},
	{ErrShoeExhausted, "shoe_exhausted"},
	{ErrGameInProgress, "game_in_progress"},
	{ErrRevealMismatch, "reveal_mismatch"},
	{ErrInvalidStateTransition, "invalid_state_transition"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInsufficientAllowance, "insufficient_allowance"},
	{ErrBalanceOverflow, "balance_overflow"},
	{ErrCooldownNotElapsed, "cooldown_not_elapsed"},
	{ErrStakeOutOfRange, "stake_out_of_range"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidCommitment, "invalid_commitment"},
	{ErrGameNotFound, "game_not_found"},
	{ErrRateLimited, "rate_limited"},
	{ErrSessionNotFound, "session_not_found"},
	{baccarat.ErrInvalidDeckCount, "invalid_deck_count"},
	{baccarat.ErrPayoutOverflow, "payout_overflow"},
}

// ErrorCode returns the stable code for a categorical error, or "internal".
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
