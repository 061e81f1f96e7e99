package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	sdkmath "cosmossdk.io/math"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
	"baccarat-backend/internal/storage/sqlite"
)

// VerifyCmd replays a shoe either from explicit inputs or from a game in
// the audit log. With --game the replay is compared to the logged result.
type VerifyCmd struct {
	Game    string           `help:"Game id to replay from the audit log" xor:"source"`
	Seed    string           `help:"Seed commitment (64 hex chars)" xor:"source"`
	Entropy string           `help:"Reveal entropy (64 hex chars)"`
	Decks   int              `help:"Decks in the shoe; 0 uses SHOE_DECKS"`
	Bet     baccarat.BetType `help:"Bet type (player, banker, tie)" default:"player"`
	Stake   string           `help:"Stake to price the payout with; empty skips pricing"`
}

type verifyReport struct {
	GameID      string                 `json:"game_id,omitempty"`
	Inputs      *models.VerifyRequest  `json:"inputs"`
	Replay      *models.VerifyResponse `json:"replay"`
	Logged      *models.GameResult     `json:"logged,omitempty"`
	Consistent  *bool                  `json:"consistent,omitempty"`
	Discrepancy string                 `json:"discrepancy,omitempty"`
}

func (c *VerifyCmd) Run() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	req := &models.VerifyRequest{
		SeedCommitment: c.Seed,
		RevealEntropy:  c.Entropy,
		Decks:          c.Decks,
		BetType:        &c.Bet,
		Stake:          c.Stake,
	}
	report := &verifyReport{GameID: c.Game, Inputs: req}

	if c.Game != "" {
		store, err := sqlite.Open(cfg.AuditDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		commitment, err := store.Commitment(ctx, c.Game)
		if err != nil {
			return err
		}
		if commitment.RevealEntropy == "" {
			return fmt.Errorf("game %s was never revealed", c.Game)
		}
		req.SeedCommitment = commitment.SeedCommitment
		req.RevealEntropy = commitment.RevealEntropy
		req.Decks = commitment.Decks
		req.BetType = &commitment.BetType
		req.Stake = commitment.Stake.String()

		logged, err := store.Result(ctx, c.Game)
		if err != nil && !errors.Is(err, services.ErrGameNotFound) {
			return err
		}
		report.Logged = logged
	}

	report.Replay, err = services.ReplayGame(req, cfg.Decks, cfg.PayoutTable())
	if err != nil {
		return err
	}
	if report.Logged != nil {
		ok, why := matches(report.Replay, report.Logged)
		report.Consistent = &ok
		report.Discrepancy = why
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Consistent != nil && !*report.Consistent {
		return fmt.Errorf("game %s does not replay to its logged result: %s", c.Game, report.Discrepancy)
	}
	return nil
}

func matches(replay *models.VerifyResponse, logged *models.GameResult) (bool, string) {
	switch {
	case replay.PlayerHand.String() != logged.PlayerHand.String():
		return false, "player hand differs"
	case replay.BankerHand.String() != logged.BankerHand.String():
		return false, "banker hand differs"
	case replay.Winner != logged.Winner:
		return false, "winner differs"
	case replay.Payout != "" && !sdkmath.NewUintFromString(replay.Payout).Equal(logged.Payout):
		return false, "payout differs"
	}
	return true, ""
}
