package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"baccarat-backend/internal/services"
)

type UserHandler struct {
	redisService *services.RedisService
	gameEngine   *services.GameEngine
	logger       *log.Logger
}

func NewUserHandler(redisService *services.RedisService, gameEngine *services.GameEngine, logger *log.Logger) *UserHandler {
	return &UserHandler{
		redisService: redisService,
		gameEngine:   gameEngine,
		logger:       logger,
	}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	player := playerFrom(c)

	session, err := h.redisService.GetPlayerSession(ctx, player, c.GetString("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	balance, err := h.gameEngine.GetBalance(ctx, player)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	slot, _, err := h.gameEngine.GetActive(ctx, player)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player": player,
		"session": gin.H{
			"session_id":    session.SessionID,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessed,
		},
		"wallet": balance,
		"slot":   slot,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	err := h.redisService.DeletePlayerSession(c.Request.Context(), playerFrom(c), c.GetString("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
