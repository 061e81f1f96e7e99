package baccarat

import "errors"

var (
	ErrInvalidBetType   = errors.New("invalid bet type")
	ErrZeroStake        = errors.New("stake must be greater than zero")
	ErrShoeExhausted    = errors.New("shoe exhausted")
	ErrInvalidDeckCount = errors.New("invalid deck count")
	ErrPayoutOverflow   = errors.New("payout overflows 256 bits")
)
