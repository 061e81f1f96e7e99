package config

import (
	"fmt"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/caarlos0/env/v11"

	"baccarat-backend/internal/baccarat"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	AuditDBPath string `env:"AUDIT_DB_PATH" envDefault:"baccarat-audit.db"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	Decks     int    `env:"SHOE_DECKS" envDefault:"1"`
	TiePolicy string `env:"TIE_POLICY" envDefault:"push"`
	MinStake  string `env:"MIN_STAKE" envDefault:"1"`
	MaxStake  string `env:"MAX_STAKE" envDefault:"1000000000000000000000000"`

	HouseAccount  string `env:"HOUSE_ACCOUNT" envDefault:"house"`
	GameAccount   string `env:"GAME_ACCOUNT" envDefault:"baccarat"`
	HouseBankroll string `env:"HOUSE_BANKROLL" envDefault:"1000000000000000000000000000"`

	ClaimAmount string        `env:"CLAIM_AMOUNT" envDefault:"1000000000000000000000"`
	ClaimPeriod time.Duration `env:"CLAIM_PERIOD" envDefault:"24h"`

	CommitmentTTL   time.Duration `env:"COMMITMENT_TTL" envDefault:"10m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	BetRateLimit    int           `env:"BET_RATE_LIMIT" envDefault:"30"`
	RevealRateLimit int           `env:"REVEAL_RATE_LIMIT" envDefault:"60"`
}

// Load reads the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Decks < baccarat.MinDecks || c.Decks > baccarat.MaxDecks {
		return fmt.Errorf("SHOE_DECKS must be between %d and %d, got %d", baccarat.MinDecks, baccarat.MaxDecks, c.Decks)
	}
	if _, err := baccarat.ParseTiePolicy(c.TiePolicy); err != nil {
		return fmt.Errorf("TIE_POLICY: %w", err)
	}

	minStake, err := sdkmath.ParseUint(c.MinStake)
	if err != nil {
		return fmt.Errorf("MIN_STAKE: %w", err)
	}
	maxStake, err := sdkmath.ParseUint(c.MaxStake)
	if err != nil {
		return fmt.Errorf("MAX_STAKE: %w", err)
	}
	if minStake.IsZero() || maxStake.LT(minStake) {
		return fmt.Errorf("stake range [%s, %s] is invalid", c.MinStake, c.MaxStake)
	}
	for name, v := range map[string]string{"HOUSE_BANKROLL": c.HouseBankroll, "CLAIM_AMOUNT": c.ClaimAmount} {
		if _, err := sdkmath.ParseUint(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if strings.TrimSpace(c.HouseAccount) == "" || strings.TrimSpace(c.GameAccount) == "" {
		return fmt.Errorf("HOUSE_ACCOUNT and GAME_ACCOUNT are required")
	}
	if c.HouseAccount == c.GameAccount {
		return fmt.Errorf("HOUSE_ACCOUNT and GAME_ACCOUNT must differ")
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.ClaimPeriod <= 0 {
		return fmt.Errorf("CLAIM_PERIOD must be positive")
	}
	if c.CommitmentTTL <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("COMMITMENT_TTL and SWEEP_INTERVAL must be positive")
	}
	return nil
}

// PayoutTable builds the engine payout table from the configured tie policy.
func (c *Config) PayoutTable() baccarat.PayoutTable {
	table := baccarat.DefaultPayoutTable()
	if policy, err := baccarat.ParseTiePolicy(c.TiePolicy); err == nil {
		table.TiePolicy = policy
	}
	return table
}

// StakeRange returns the parsed stake bounds. Validate must have passed.
func (c *Config) StakeRange() (sdkmath.Uint, sdkmath.Uint) {
	return sdkmath.NewUintFromString(c.MinStake), sdkmath.NewUintFromString(c.MaxStake)
}
