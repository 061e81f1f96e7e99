package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"baccarat-backend/internal/config"
	"baccarat-backend/internal/handlers"
	"baccarat-backend/internal/services"
	"baccarat-backend/internal/storage/sqlite"
)

type ServeCmd struct {
	Addr            string        `help:"Listen address; defaults to :$PORT"`
	PublicRateLimit int           `help:"Verify calls per client IP per minute (0 disables)" default:"60"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests" default:"10s"`
}

func (c *ServeCmd) Run() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		return err
	}
	defer redisService.Close()

	store, err := sqlite.Open(cfg.AuditDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	clock := quartz.NewReal()
	engine, err := newEngine(ctx, cfg, redisService, store, clock, logger)
	if err != nil {
		return err
	}

	hub := handlers.NewWebSocketHub(engine.GetBalance, logger.WithPrefix("ws"))
	engine.SetEvents(hub)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		Engine:          engine,
		Redis:           redisService,
		JWT:             services.NewJWTService(cfg, clock),
		Hub:             hub,
		Logger:          logger,
		PublicRateLimit: c.PublicRateLimit,
	})

	addr := c.Addr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		return sweep(ctx, engine, clock, cfg, logger)
	})

	g.Go(func() error {
		logger.Info("server starting", "addr", addr, "decks", cfg.Decks, "tie_policy", cfg.TiePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newEngine wires the ledger, faucet and commitment log into a game engine
// and funds the house account on first start.
func newEngine(ctx context.Context, cfg *config.Config, rs *services.RedisService, store *sqlite.Store, clock quartz.Clock, logger *log.Logger) (*services.GameEngine, error) {
	ledger := services.NewRedisLedger(rs)

	seeded, err := ledger.SeedBalance(ctx, cfg.HouseAccount, sdkmath.NewUintFromString(cfg.HouseBankroll))
	if err != nil {
		return nil, fmt.Errorf("failed to seed house bankroll: %w", err)
	}
	if seeded {
		logger.Info("house bankroll seeded", "account", cfg.HouseAccount, "amount", cfg.HouseBankroll)
	}

	faucet := services.NewFaucet(rs, clock, sdkmath.NewUintFromString(cfg.ClaimAmount), cfg.ClaimPeriod, logger.WithPrefix("faucet"))
	minStake, maxStake := cfg.StakeRange()

	return services.NewGameEngine(rs, ledger, store, faucet, services.EngineOptions{
		Decks:           cfg.Decks,
		Table:           cfg.PayoutTable(),
		MinStake:        minStake,
		MaxStake:        maxStake,
		HouseAccount:    cfg.HouseAccount,
		GameAccount:     cfg.GameAccount,
		BetRateLimit:    cfg.BetRateLimit,
		RevealRateLimit: cfg.RevealRateLimit,
		Clock:           clock,
		Logger:          logger.WithPrefix("engine"),
	}), nil
}

// sweep refunds commitments that were never revealed within CommitmentTTL.
func sweep(ctx context.Context, engine *services.GameEngine, clock quartz.Clock, cfg *config.Config, logger *log.Logger) error {
	ticker := clock.NewTicker(cfg.SweepInterval, "sweep")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			released, err := engine.AbandonStale(ctx, cfg.CommitmentTTL)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("stale commitment sweep failed", "err", err)
				continue
			}
			if released > 0 {
				logger.Info("released stale commitments", "count", released)
			}
		}
	}
}
