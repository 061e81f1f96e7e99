package main

import (
	"context"
	"fmt"

	"github.com/coder/quartz"

	"baccarat-backend/internal/services"
)

// TokenCmd stands in for a login flow: it opens a Redis session for the
// player and prints a bearer token bound to it.
type TokenCmd struct {
	Player string `required:"" help:"Player address or name"`
}

func (c *TokenCmd) Run() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		return err
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg, quartz.NewReal())
	token, session, err := jwtService.Issue(context.Background(), redisService, c.Player)
	if err != nil {
		return err
	}

	logger.Info("session opened", "player", session.Player, "session", session.SessionID, "ttl", jwtService.TTL())
	fmt.Println(token)
	return nil
}
