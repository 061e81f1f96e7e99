package models

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

// TokenDecimals matches the Chips token's 18 decimal places.
const TokenDecimals = 18

func GenerateGameID() string {
	return uuid.New().String()
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateSessionID() string {
	return uuid.New().String()
}

// ParseBytes32 decodes a 32-byte hex value, with or without a 0x prefix.
func ParseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %v", err)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func EncodeBytes32(b [32]byte) string {
	return "0x" + hex.EncodeToString(b[:])
}

// ParseAmount parses a base-unit decimal string.
func ParseAmount(s string) (sdkmath.Uint, error) {
	u, err := sdkmath.ParseUint(strings.TrimSpace(s))
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	return u, nil
}

// FormatUnits renders a base-unit amount with TokenDecimals places, trimming
// trailing zeros.
func FormatUnits(amount sdkmath.Uint) string {
	s := amount.String()
	if len(s) <= TokenDecimals {
		s = strings.Repeat("0", TokenDecimals-len(s)+1) + s
	}
	whole := s[:len(s)-TokenDecimals]
	frac := strings.TrimRight(s[len(s)-TokenDecimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
