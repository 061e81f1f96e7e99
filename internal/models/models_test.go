package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/models"
)

func TestParseBytes32(t *testing.T) {
	hexValue := strings.Repeat("ab", 32)

	b, err := models.ParseBytes32("0x" + hexValue)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), b[31])
	assert.Equal(t, "0x"+hexValue, models.EncodeBytes32(b))

	_, err = models.ParseBytes32(hexValue)
	require.NoError(t, err)

	_, err = models.ParseBytes32("0x1234")
	assert.Error(t, err)
	_, err = models.ParseBytes32("zz")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	a, err := models.ParseAmount(" 1000 ")
	require.NoError(t, err)
	assert.Equal(t, "1000", a.String())

	for _, bad := range []string{"", "-1", "1.5", "abc"} {
		_, err := models.ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatUnits(t *testing.T) {
	tests := map[string]string{
		"0":                      "0",
		"1":                      "0.000000000000000001",
		"1000000000000000000":    "1",
		"1500000000000000000":    "1.5",
		"1000000000000000000000": "1000",
		"123456789000000000000":  "123.456789",
		"900000000000000000":     "0.9",
	}
	for in, want := range tests {
		assert.Equal(t, want, models.FormatUnits(sdkmath.NewUintFromString(in)), in)
	}
}

func TestGenerateIDs(t *testing.T) {
	assert.NotEqual(t, models.GenerateGameID(), models.GenerateGameID())
	assert.True(t, strings.HasPrefix(models.GenerateTransactionID(), "tx_"))
}

func TestClaimCooldownNextClaimTime(t *testing.T) {
	assert.True(t, models.ClaimCooldown{}.NextClaimTime().IsZero())

	last := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	c := models.ClaimCooldown{Player: "p", LastClaim: last, PeriodSeconds: 3600}
	assert.Equal(t, last.Add(time.Hour), c.NextClaimTime())
}

func TestGameResultJSON(t *testing.T) {
	c := &models.Commitment{
		ID:             "g1",
		Player:         "alice",
		BetType:        baccarat.BetTie,
		Stake:          sdkmath.NewUint(50),
		SeedCommitment: "0x01",
		RevealEntropy:  "0x02",
		Decks:          1,
	}
	round := baccarat.Round{
		Player:      baccarat.Hand{{Rank: 4}, {Rank: 3}},
		Banker:      baccarat.Hand{{Rank: 2}, {Rank: 5}},
		PlayerTotal: 7,
		BankerTotal: 7,
	}
	outcome := baccarat.Outcome{Winner: baccarat.WinnerTie, Payout: sdkmath.NewUint(450)}

	result := models.NewGameResult(c, round, outcome, time.Unix(0, 0).UTC())
	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "tie", decoded["winner"])
	assert.Equal(t, "tie", decoded["bet_type"])
	assert.Equal(t, "450", decoded["payout"])
	assert.Equal(t, "50", decoded["stake"])

	var back models.GameResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "450", back.Payout.String())
	assert.Equal(t, []int{4, 3}, back.PlayerHand.Ranks())
}
