package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
	logger     *log.Logger
}

func NewGameHandler(gameEngine *services.GameEngine, logger *log.Logger) *GameHandler {
	return &GameHandler{
		gameEngine: gameEngine,
		logger:     logger,
	}
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	player := playerFrom(c)

	var req models.BetRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	commitment, err := h.gameEngine.PlaceBet(c.Request.Context(), player, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    commitment,
	})
}

func (h *GameHandler) Reveal(c *gin.Context) {
	player := playerFrom(c)

	var req models.RevealRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.gameEngine.Reveal(c.Request.Context(), player, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// Settle retries a payout that failed after the game was resolved.
func (h *GameHandler) Settle(c *gin.Context) {
	result, err := h.gameEngine.Settle(c.Request.Context(), playerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) GetActiveGame(c *gin.Context) {
	slot, commitment, err := h.gameEngine.GetActive(c.Request.Context(), playerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   slot.State,
		"game":    commitment,
	})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > services.MaxHistory {
		limit = 50
	}

	games, err := h.gameEngine.GetHistory(c.Request.Context(), playerFrom(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   games,
		"count":   len(games),
	})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	result, err := h.gameEngine.GetGame(c.Request.Context(), playerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// VerifyGame replays a game from its public inputs; it needs no session.
func (h *GameHandler) VerifyGame(c *gin.Context) {
	var req models.VerifyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	verification, err := h.gameEngine.Verify(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": verification,
	})
}
