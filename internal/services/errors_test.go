package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/services"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.ErrGameInProgress, "game_in_progress"},
		{fmt.Errorf("collect: %w", services.ErrInsufficientAllowance), "insufficient_allowance"},
		{fmt.Errorf("deal: %w", baccarat.ErrShoeExhausted), "shoe_exhausted"},
		{baccarat.ErrInvalidBetType, "invalid_bet_type"},
		{services.ErrRevealMismatch, "reveal_mismatch"},
		{services.ErrCooldownNotElapsed, "cooldown_not_elapsed"},
		{fmt.Errorf("mint: %w", services.ErrBalanceOverflow), "balance_overflow"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, services.ErrorCode(tt.err), tt.err.Error())
	}
}
