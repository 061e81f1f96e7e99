package services_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
	"baccarat-backend/internal/storage/sqlite"
)

const (
	house = "house"
	table = "baccarat"
	alice = "alice"
	bob   = "bob"
)

var startTime = time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)

// flakyLog wraps the sqlite log with switchable failures.
type flakyLog struct {
	services.CommitmentLog

	mu          sync.Mutex
	failCommit  error
	failReveal  error
	failResult  error
	forgetGames map[string]bool
}

func (l *flakyLog) AppendCommitment(ctx context.Context, c *models.Commitment) error {
	l.mu.Lock()
	err := l.failCommit
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return l.CommitmentLog.AppendCommitment(ctx, c)
}

func (l *flakyLog) AppendReveal(ctx context.Context, gameID, entropy string, at time.Time) error {
	l.mu.Lock()
	err := l.failReveal
	l.failReveal = nil
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return l.CommitmentLog.AppendReveal(ctx, gameID, entropy, at)
}

func (l *flakyLog) AppendResult(ctx context.Context, r *models.GameResult) error {
	l.mu.Lock()
	err := l.failResult
	l.failResult = nil
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return l.CommitmentLog.AppendResult(ctx, r)
}

func (l *flakyLog) HasCommitment(ctx context.Context, gameID string) (bool, error) {
	l.mu.Lock()
	forgotten := l.forgetGames[gameID]
	l.mu.Unlock()
	if forgotten {
		return false, nil
	}
	return l.CommitmentLog.HasCommitment(ctx, gameID)
}

type event struct {
	kind   string
	player string
	gameID string
	amount string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) GameCompleted(r *models.GameResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{kind: "completed", player: r.Player, gameID: r.GameID, amount: r.Payout.String()})
}

func (p *recordingPublisher) Payout(player, gameID string, amount sdkmath.Uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{kind: "payout", player: player, gameID: gameID, amount: amount.String()})
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.kind
	}
	return out
}

// fixedEntropy returns the same value on every call and counts samples.
type fixedEntropy struct {
	mu      sync.Mutex
	value   [32]byte
	samples int
}

func (f *fixedEntropy) Sample(context.Context) ([32]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
	return f.value, nil
}

func (f *fixedEntropy) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samples
}

type testEnv struct {
	mr       *miniredis.Miniredis
	redis    *services.RedisService
	ledger   *services.RedisLedger
	faucet   *services.Faucet
	engine   *services.GameEngine
	log      *flakyLog
	logs     *bytes.Buffer
	events   *recordingPublisher
	entropy  *fixedEntropy
	clock    *quartz.Mock
	registry *services.Registry
}

type envOption func(*services.EngineOptions)

func withRateLimits(bet, reveal int) envOption {
	return func(o *services.EngineOptions) {
		o.BetRateLimit = bet
		o.RevealRateLimit = reveal
	}
}

func withStakeRange(min, max uint64) envOption {
	return func(o *services.EngineOptions) {
		o.MinStake = sdkmath.NewUint(min)
		o.MaxStake = sdkmath.NewUint(max)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rs := services.NewRedisServiceWithClient(client)
	t.Cleanup(func() { _ = rs.Close() })

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := quartz.NewMock(t)
	clock.Set(startTime)

	ledger := services.NewRedisLedger(rs)
	logs := &bytes.Buffer{}
	logger := log.New(logs)
	faucet := services.NewFaucet(rs, clock, sdkmath.NewUint(1000), 24*time.Hour, logger)
	commitLog := &flakyLog{CommitmentLog: store, forgetGames: map[string]bool{}}
	events := &recordingPublisher{}
	entropy := &fixedEntropy{}

	engineOpts := services.EngineOptions{
		Decks:        1,
		Table:        baccarat.DefaultPayoutTable(),
		HouseAccount: house,
		GameAccount:  table,
		Entropy:      entropy,
		Events:       events,
		Clock:        clock,
		Logger:       logger,
	}
	for _, opt := range opts {
		opt(&engineOpts)
	}
	engine := services.NewGameEngine(rs, ledger, commitLog, faucet, engineOpts)

	ctx := context.Background()
	_, err = ledger.SeedBalance(ctx, house, sdkmath.NewUint(1_000_000))
	require.NoError(t, err)

	return &testEnv{
		mr:       mr,
		redis:    rs,
		ledger:   ledger,
		faucet:   faucet,
		engine:   engine,
		log:      commitLog,
		logs:     logs,
		events:   events,
		entropy:  entropy,
		clock:    clock,
		registry: engine.Registry(),
	}
}

// fund gives player a balance and approves the table for all of it.
func (e *testEnv) fund(t *testing.T, player string, amount uint64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.ledger.Mint(ctx, player, sdkmath.NewUint(amount)))
	require.NoError(t, e.ledger.Approve(ctx, player, table, sdkmath.NewUint(amount)))
}

func (e *testEnv) balance(t *testing.T, account string) string {
	t.Helper()
	b, err := e.ledger.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return b.String()
}

func (e *testEnv) slot(t *testing.T, player string) *services.Slot {
	t.Helper()
	s, err := e.registry.Slot(context.Background(), player)
	require.NoError(t, err)
	return s
}

func seedFor(name string) [32]byte {
	return sha256.Sum256([]byte(name))
}

// entropyWhere searches for reveal entropy whose round satisfies want.
func entropyWhere(t *testing.T, seed [32]byte, bet baccarat.BetType, stake uint64, want func(baccarat.Round, baccarat.Outcome) bool) [32]byte {
	t.Helper()
	for i := uint64(0); i < 10_000; i++ {
		var entropy [32]byte
		binary.LittleEndian.PutUint64(entropy[:], i)
		round, outcome, err := baccarat.Play(seed, entropy, 1, bet, sdkmath.NewUint(stake), baccarat.DefaultPayoutTable())
		require.NoError(t, err)
		if want(round, outcome) {
			return entropy
		}
	}
	t.Fatal("no entropy produced the wanted round")
	return [32]byte{}
}

func winnerIs(w baccarat.Winner) func(baccarat.Round, baccarat.Outcome) bool {
	return func(_ baccarat.Round, o baccarat.Outcome) bool { return o.Winner == w }
}

func betRequest(bet baccarat.BetType, stake string, seed [32]byte) *models.BetRequest {
	return &models.BetRequest{
		BetType:        &bet,
		Stake:          stake,
		SeedCommitment: models.EncodeBytes32(seed),
	}
}

func betOf(b baccarat.BetType) *baccarat.BetType { return &b }
