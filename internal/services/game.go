package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/models"
)

const rateLimitWindow = time.Minute

type EngineOptions struct {
	Decks    int
	Table    baccarat.PayoutTable
	MinStake sdkmath.Uint
	MaxStake sdkmath.Uint

	// HouseAccount holds stakes and pays winnings. GameAccount is the
	// spender players approve.
	HouseAccount string
	GameAccount  string

	BetRateLimit    int
	RevealRateLimit int

	Entropy EntropySource
	Events  EventPublisher
	Clock   quartz.Clock
	Logger  *log.Logger
}

// GameEngine runs the bet -> reveal -> settle lifecycle of the table.
type GameEngine struct {
	redis     *RedisService
	ledger    Ledger
	registry  *Registry
	commitLog CommitmentLog
	faucet    *Faucet

	decks    int
	table    baccarat.PayoutTable
	minStake sdkmath.Uint
	maxStake sdkmath.Uint

	house string
	game  string

	betLimit    int
	revealLimit int

	entropy EntropySource
	events  EventPublisher
	clock   quartz.Clock
	logger  *log.Logger
}

func NewGameEngine(redisService *RedisService, ledger Ledger, commitLog CommitmentLog, faucet *Faucet, opts EngineOptions) *GameEngine {
	if opts.Decks == 0 {
		opts.Decks = baccarat.MinDecks
	}
	if opts.Table == (baccarat.PayoutTable{}) {
		opts.Table = baccarat.DefaultPayoutTable()
	}
	if opts.MinStake.IsNil() {
		opts.MinStake = sdkmath.OneUint()
	}
	if opts.MaxStake.IsNil() {
		opts.MaxStake = baccarat.MaxAmount()
	}
	if opts.Entropy == nil {
		opts.Entropy = CryptoEntropy{}
	}
	if opts.Events == nil {
		opts.Events = NopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &GameEngine{
		redis:       redisService,
		ledger:      ledger,
		registry:    NewRegistry(redisService),
		commitLog:   commitLog,
		faucet:      faucet,
		decks:       opts.Decks,
		table:       opts.Table,
		minStake:    opts.MinStake,
		maxStake:    opts.MaxStake,
		house:       opts.HouseAccount,
		game:        opts.GameAccount,
		betLimit:    opts.BetRateLimit,
		revealLimit: opts.RevealRateLimit,
		entropy:     opts.Entropy,
		events:      opts.Events,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
}

// SetEvents swaps the publisher; used to attach the websocket hub after
// construction.
func (e *GameEngine) SetEvents(events EventPublisher) {
	e.events = events
}

func (e *GameEngine) Registry() *Registry {
	return e.registry
}

func (e *GameEngine) GameAccount() string {
	return e.game
}

func (e *GameEngine) checkRate(ctx context.Context, player, action string, limit int) error {
	allowed, err := e.redis.CheckRateLimit(ctx, player, action, limit, rateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: too many %s requests", ErrRateLimited, action)
	}
	return nil
}

func (e *GameEngine) validateBet(req *models.BetRequest) (baccarat.BetType, sdkmath.Uint, [32]byte, error) {
	var seed [32]byte
	bet, err := requireBetType(req.BetType)
	if err != nil {
		return 0, sdkmath.Uint{}, seed, err
	}

	stake, err := models.ParseAmount(req.Stake)
	if err != nil {
		return 0, sdkmath.Uint{}, seed, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if stake.IsZero() {
		return 0, sdkmath.Uint{}, seed, ErrZeroStake
	}
	if stake.LT(e.minStake) || stake.GT(e.maxStake) {
		return 0, sdkmath.Uint{}, seed, fmt.Errorf("%w: stake must be between %s and %s", ErrStakeOutOfRange, e.minStake, e.maxStake)
	}

	seed, err = models.ParseBytes32(req.SeedCommitment)
	if err != nil {
		return 0, sdkmath.Uint{}, seed, fmt.Errorf("%w: %v", ErrInvalidCommitment, err)
	}
	return bet, stake, seed, nil
}

func requireBetType(b *baccarat.BetType) (baccarat.BetType, error) {
	if b == nil {
		return 0, fmt.Errorf("%w: bet_type is required", ErrInvalidBetType)
	}
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBetType, int(*b))
	}
	return *b, nil
}

// PlaceBet commits the player's stake and seed commitment. It returns only
// once the commitment is durable in the commitment log.
func (e *GameEngine) PlaceBet(ctx context.Context, player string, req *models.BetRequest) (*models.Commitment, error) {
	bet, stake, seed, err := e.validateBet(req)
	if err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, player, "bet", e.betLimit); err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	gameID := models.GenerateGameID()

	if err := e.registry.Transition(ctx, player, StateIdle, StateCommitted, gameID, now); err != nil {
		return nil, err
	}

	if err := e.ledger.TransferFrom(ctx, e.game, player, e.house, stake); err != nil {
		e.release(ctx, player, gameID)
		return nil, fmt.Errorf("failed to collect stake: %w", err)
	}

	commitment := &models.Commitment{
		ID:             gameID,
		Player:         player,
		BetType:        bet,
		Stake:          stake,
		SeedCommitment: models.EncodeBytes32(seed),
		Decks:          e.decks,
		CreatedAt:      now,
	}

	if err := e.registry.SaveCommitment(ctx, commitment); err != nil {
		e.refund(ctx, player, gameID, stake)
		e.release(ctx, player, gameID)
		return nil, err
	}

	if err := e.commitLog.AppendCommitment(ctx, commitment); err != nil {
		e.refund(ctx, player, gameID, stake)
		if derr := e.registry.DeleteCommitment(ctx, gameID); derr != nil {
			e.logger.Error("failed to delete unlogged commitment", "game", gameID, "err", derr)
		}
		e.release(ctx, player, gameID)
		return nil, fmt.Errorf("failed to log commitment: %w", err)
	}

	e.recordTransaction(ctx, &models.Transaction{
		Player:      player,
		Type:        models.TransactionTypeBet,
		Amount:      stake,
		GameID:      gameID,
		Description: fmt.Sprintf("Bet on %s", bet),
		CreatedAt:   now,
	})

	e.logger.Info("bet placed", "game", gameID, "player", player, "bet", bet, "stake", stake)
	return commitment, nil
}

func (e *GameEngine) release(ctx context.Context, player, gameID string) {
	if err := e.registry.Transition(ctx, player, StateCommitted, StateIdle, gameID, e.clock.Now().UTC()); err != nil {
		e.logger.Error("failed to release slot", "player", player, "game", gameID, "err", err)
	}
}

func (e *GameEngine) refund(ctx context.Context, player, gameID string, stake sdkmath.Uint) {
	if err := e.ledger.Transfer(ctx, e.house, player, stake); err != nil {
		e.logger.Error("failed to refund stake", "player", player, "game", gameID, "stake", stake, "err", err)
	}
}

// Reveal resolves the player's committed game. Entropy is sampled at most
// once per game; a retried reveal replays the same shoe.
func (e *GameEngine) Reveal(ctx context.Context, player string, req *models.RevealRequest) (*models.GameResult, error) {
	if err := e.checkRate(ctx, player, "reveal", e.revealLimit); err != nil {
		return nil, err
	}

	slot, err := e.registry.Slot(ctx, player)
	if err != nil {
		return nil, err
	}
	if slot.State != StateCommitted {
		return nil, fmt.Errorf("%w: slot is %s", ErrInvalidStateTransition, slot.State)
	}
	if slot.GameID != req.GameID {
		return nil, fmt.Errorf("%w: no commitment %s for this player", ErrRevealMismatch, req.GameID)
	}

	commitment, err := e.registry.Commitment(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if commitment.Player != player {
		return nil, fmt.Errorf("%w: game %s belongs to another player", ErrRevealMismatch, req.GameID)
	}

	revealed, err := models.ParseBytes32(req.SeedCommitment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommitment, err)
	}
	seed, err := models.ParseBytes32(commitment.SeedCommitment)
	if err != nil {
		return nil, fmt.Errorf("corrupt commitment %s: %w", commitment.ID, err)
	}
	if revealed != seed {
		return nil, fmt.Errorf("%w: seed commitment differs", ErrRevealMismatch)
	}

	logged, err := e.commitLog.HasCommitment(ctx, commitment.ID)
	if err != nil {
		return nil, err
	}
	if !logged {
		return nil, fmt.Errorf("%w: commitment %s is not in the log", ErrRevealMismatch, commitment.ID)
	}

	entropy, err := e.revealEntropy(ctx, commitment)
	if err != nil {
		return nil, err
	}

	round, outcome, err := baccarat.Play(seed, entropy, commitment.Decks, commitment.BetType, commitment.Stake, e.table)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve game %s: %w", commitment.ID, err)
	}

	now := e.clock.Now().UTC()
	result, err := e.redis.SaveGameResult(ctx, models.NewGameResult(commitment, round, outcome, now))
	if err != nil {
		return nil, err
	}
	if err := e.commitLog.AppendResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to log result: %w", err)
	}

	if err := e.registry.Transition(ctx, player, StateCommitted, StateResolved, result.GameID, now); err != nil {
		return nil, err
	}
	if err := e.redis.CompleteGame(ctx, player, result.GameID, now); err != nil {
		e.logger.Warn("failed to index completed game", "game", result.GameID, "err", err)
	}
	if err := e.registry.ExpireCommitment(ctx, result.GameID); err != nil {
		e.logger.Warn("failed to expire commitment", "game", result.GameID, "err", err)
	}

	e.logger.Info("game resolved",
		"game", result.GameID,
		"player", player,
		"winner", result.Winner,
		"player_total", result.PlayerTotal,
		"banker_total", result.BankerTotal,
		"payout", result.Payout,
	)
	e.events.GameCompleted(result)

	if err := e.settle(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// revealEntropy returns the game's reveal entropy, sampling and persisting it
// on first use, and makes sure the commitment log holds it.
func (e *GameEngine) revealEntropy(ctx context.Context, c *models.Commitment) ([32]byte, error) {
	if c.RevealEntropy == "" {
		sample, err := e.entropy.Sample(ctx)
		if err != nil {
			return [32]byte{}, err
		}
		now := e.clock.Now().UTC()
		stored, err := e.registry.AssignEntropy(ctx, c.Player, c.ID, models.EncodeBytes32(sample), now)
		if err != nil {
			return [32]byte{}, err
		}
		*c = *stored
	}

	// Appended on every attempt: a retry after a failed append must still
	// leave the reveal in the log. Equal entropy is a no-op there.
	if err := e.commitLog.AppendReveal(ctx, c.ID, c.RevealEntropy, c.RevealedAt); err != nil {
		return [32]byte{}, fmt.Errorf("failed to log reveal: %w", err)
	}

	entropy, err := models.ParseBytes32(c.RevealEntropy)
	if err != nil {
		return [32]byte{}, fmt.Errorf("corrupt reveal entropy for %s: %w", c.ID, err)
	}
	return entropy, nil
}

// Settle retries the payout of the player's resolved game.
func (e *GameEngine) Settle(ctx context.Context, player string) (*models.GameResult, error) {
	slot, err := e.registry.Slot(ctx, player)
	if err != nil {
		return nil, err
	}
	if slot.State != StateResolved {
		return nil, fmt.Errorf("%w: slot is %s", ErrInvalidStateTransition, slot.State)
	}

	result, err := e.redis.GetGameResult(ctx, slot.GameID)
	if err != nil {
		return nil, err
	}
	if err := e.settle(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// settle pays a resolved game exactly once and frees the slot. The paid
// marker is taken before the transfer and dropped if the transfer fails.
func (e *GameEngine) settle(ctx context.Context, result *models.GameResult) error {
	first, err := e.registry.MarkPaid(ctx, result.GameID)
	if err != nil {
		return err
	}

	if first && !result.Payout.IsZero() {
		if err := e.ledger.Transfer(ctx, e.house, result.Player, result.Payout); err != nil {
			if uerr := e.registry.UnmarkPaid(ctx, result.GameID); uerr != nil {
				e.logger.Error("failed to clear paid marker", "game", result.GameID, "err", uerr)
			}
			e.logger.Error("payout failed", "game", result.GameID, "player", result.Player, "amount", result.Payout, "err", err)
			return fmt.Errorf("failed to pay out game %s: %w", result.GameID, err)
		}

		txType, desc := models.TransactionTypeWin, fmt.Sprintf("Won on %s", result.BetType)
		if result.Push {
			txType, desc = models.TransactionTypePush, fmt.Sprintf("Push on %s, stake returned", result.BetType)
		}
		e.recordTransaction(ctx, &models.Transaction{
			Player:      result.Player,
			Type:        txType,
			Amount:      result.Payout,
			GameID:      result.GameID,
			Description: desc,
			CreatedAt:   e.clock.Now().UTC(),
		})
		e.events.Payout(result.Player, result.GameID, result.Payout)
	}

	return e.registry.Transition(ctx, result.Player, StateResolved, StateIdle, result.GameID, e.clock.Now().UTC())
}

// AbandonStale refunds commitments older than maxAge that were never
// revealed and returns how many were released.
func (e *GameEngine) AbandonStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := e.clock.Now().Add(-maxAge)
	ids, err := e.registry.Pending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending commitments: %w", err)
	}

	released := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return released, err
		}

		c, err := e.registry.Commitment(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			_ = e.registry.ClearPending(ctx, id)
			continue
		}
		if err != nil {
			return released, err
		}

		ok, err := e.registry.Abandon(ctx, c.Player, c.ID)
		if err != nil {
			e.logger.Error("failed to abandon commitment", "game", c.ID, "err", err)
			continue
		}
		if !ok {
			continue
		}

		if err := e.ledger.Transfer(ctx, e.house, c.Player, c.Stake); err != nil {
			e.logger.Error("failed to refund abandoned game", "game", c.ID, "player", c.Player, "stake", c.Stake, "err", err)
			continue
		}
		e.recordTransaction(ctx, &models.Transaction{
			Player:      c.Player,
			Type:        models.TransactionTypeRefund,
			Amount:      c.Stake,
			GameID:      c.ID,
			Description: "Refund of unrevealed bet",
			CreatedAt:   e.clock.Now().UTC(),
		})

		e.logger.Info("abandoned stale commitment", "game", c.ID, "player", c.Player, "stake", c.Stake)
		released++
	}

	return released, nil
}

func (e *GameEngine) recordTransaction(ctx context.Context, tx *models.Transaction) {
	if tx.ID == "" {
		tx.ID = models.GenerateTransactionID()
	}
	if err := e.redis.SaveTransaction(ctx, tx); err != nil {
		e.logger.Warn("failed to record transaction", "player", tx.Player, "type", tx.Type, "err", err)
	}
}

// GetActive returns the player's slot and, when a game is open, its
// commitment.
func (e *GameEngine) GetActive(ctx context.Context, player string) (*Slot, *models.Commitment, error) {
	slot, err := e.registry.Slot(ctx, player)
	if err != nil {
		return nil, nil, err
	}
	if slot.State == StateIdle {
		return slot, nil, nil
	}

	c, err := e.registry.Commitment(ctx, slot.GameID)
	if err != nil {
		return slot, nil, err
	}
	return slot, c, nil
}

// GetGame looks a finished game up in Redis, then in the commitment log once
// the cached copy has expired.
func (e *GameEngine) GetGame(ctx context.Context, player, gameID string) (*models.GameResult, error) {
	result, err := e.redis.GetGameResult(ctx, gameID)
	if errors.Is(err, ErrGameNotFound) {
		result, err = e.commitLog.Result(ctx, gameID)
	}
	if err != nil {
		return nil, err
	}
	if result.Player != player {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return result, nil
}

func (e *GameEngine) GetHistory(ctx context.Context, player string, limit int64) ([]*models.GameResult, error) {
	return e.redis.GetGameHistory(ctx, player, limit)
}

func (e *GameEngine) GetTransactions(ctx context.Context, player string, limit int64) ([]*models.Transaction, error) {
	return e.redis.GetPlayerTransactions(ctx, player, limit)
}

// Verify replays a game from its public inputs. It needs no stored state.
func (e *GameEngine) Verify(req *models.VerifyRequest) (*models.VerifyResponse, error) {
	return ReplayGame(req, e.decks, e.table)
}

// ReplayGame derives and deals the shoe for req and, when a stake is given,
// prices it with table. A zero Decks means defaultDecks.
func ReplayGame(req *models.VerifyRequest, defaultDecks int, table baccarat.PayoutTable) (*models.VerifyResponse, error) {
	seed, err := models.ParseBytes32(req.SeedCommitment)
	if err != nil {
		return nil, fmt.Errorf("%w: seed_commitment: %v", ErrInvalidCommitment, err)
	}
	entropy, err := models.ParseBytes32(req.RevealEntropy)
	if err != nil {
		return nil, fmt.Errorf("%w: reveal_entropy: %v", ErrInvalidCommitment, err)
	}
	decks := req.Decks
	if decks == 0 {
		decks = defaultDecks
	}

	shoe, err := baccarat.Derive(seed, entropy, decks)
	if err != nil {
		return nil, err
	}
	round, err := baccarat.Deal(shoe)
	if err != nil {
		return nil, err
	}

	resp := &models.VerifyResponse{
		ShoeSeed:    models.EncodeBytes32(baccarat.ShoeSeed(seed, entropy, decks)),
		PlayerHand:  round.Player,
		BankerHand:  round.Banker,
		PlayerTotal: round.PlayerTotal,
		BankerTotal: round.BankerTotal,
		Winner:      baccarat.DetermineWinner(round.PlayerTotal, round.BankerTotal),
	}

	if req.Stake != "" {
		bet, err := requireBetType(req.BetType)
		if err != nil {
			return nil, err
		}
		stake, err := models.ParseAmount(req.Stake)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		outcome, err := baccarat.Resolve(round, bet, stake, table)
		if err != nil {
			return nil, err
		}
		resp.Payout = outcome.Payout.String()
		resp.Push = outcome.Push
	}

	return resp, nil
}

func (e *GameEngine) GetBalance(ctx context.Context, player string) (*models.BalanceResponse, error) {
	balance, err := e.ledger.BalanceOf(ctx, player)
	if err != nil {
		return nil, err
	}
	allowance, err := e.ledger.Allowance(ctx, player, e.game)
	if err != nil {
		return nil, err
	}
	return &models.BalanceResponse{
		Player:    player,
		Balance:   balance,
		Allowance: allowance,
		Formatted: models.FormatUnits(balance),
	}, nil
}

// Approve sets how much of the player's balance the table may collect.
func (e *GameEngine) Approve(ctx context.Context, player, amount string) (sdkmath.Uint, error) {
	value, err := models.ParseAmount(amount)
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := e.ledger.Approve(ctx, player, e.game, value); err != nil {
		return sdkmath.Uint{}, err
	}
	return value, nil
}

func (e *GameEngine) Claim(ctx context.Context, player string) (sdkmath.Uint, error) {
	return e.faucet.Claim(ctx, player)
}

func (e *GameEngine) GetNextClaimTime(ctx context.Context, player string) (time.Time, error) {
	return e.faucet.NextClaimTime(ctx, player)
}

// ClaimStatus reports the next claim time (zero if never claimed) and
// whether a claim would succeed now.
func (e *GameEngine) ClaimStatus(ctx context.Context, player string) (time.Time, bool, error) {
	next, err := e.faucet.NextClaimTime(ctx, player)
	if err != nil {
		return time.Time{}, false, err
	}
	return next, !e.clock.Now().Before(next), nil
}
