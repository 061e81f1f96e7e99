package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v5"

	"baccarat-backend/internal/config"
	"baccarat-backend/internal/models"
)

const developmentSecret = "baccarat-development-secret"

type Claims struct {
	Player    string `json:"player"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
	clock  quartz.Clock
}

func NewJWTService(cfg *config.Config, clock quartz.Clock) *JWTService {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = developmentSecret
	}
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = TTLPlayerSession
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Now reads the clock tokens are issued and validated against.
func (s *JWTService) Now() time.Time {
	return s.clock.Now()
}

func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

func (s *JWTService) GenerateToken(player, sessionID string) (string, error) {
	if player == "" {
		return "", errors.New("player is required")
	}
	now := s.clock.Now()
	claims := Claims{
		Player:    player,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.clock.Now() }),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Player == "" {
		return nil, errors.New("invalid token: missing player")
	}
	return claims, nil
}

// Issue opens a new session for player and signs a token bound to it.
func (s *JWTService) Issue(ctx context.Context, sessions *RedisService, player string) (string, *models.PlayerSession, error) {
	now := s.clock.Now().UTC()
	session := &models.PlayerSession{
		SessionID:    models.GenerateSessionID(),
		Player:       player,
		CreatedAt:    now,
		LastAccessed: now,
	}

	token, err := s.GenerateToken(player, session.SessionID)
	if err != nil {
		return "", nil, err
	}
	if err := sessions.StorePlayerSession(ctx, session, s.ttl); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}
	return token, session, nil
}
