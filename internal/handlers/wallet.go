package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
)

// BalanceNotifier is told when a player's balance changed outside a game.
type BalanceNotifier interface {
	BalanceChanged(player string)
}

type WalletHandler struct {
	gameEngine *services.GameEngine
	notifier   BalanceNotifier
	logger     *log.Logger
}

func NewWalletHandler(gameEngine *services.GameEngine, notifier BalanceNotifier, logger *log.Logger) *WalletHandler {
	return &WalletHandler{
		gameEngine: gameEngine,
		notifier:   notifier,
		logger:     logger,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	balance, err := h.gameEngine.GetBalance(c.Request.Context(), playerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": balance,
	})
}

func (h *WalletHandler) GetAllowance(c *gin.Context) {
	balance, err := h.gameEngine.GetBalance(c.Request.Context(), playerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"spender":   h.gameEngine.GameAccount(),
		"allowance": balance.Allowance,
	})
}

func (h *WalletHandler) Approve(c *gin.Context) {
	var req models.ApproveRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	amount, err := h.gameEngine.Approve(c.Request.Context(), playerFrom(c), req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"spender":   h.gameEngine.GameAccount(),
		"allowance": amount,
	})
}

func (h *WalletHandler) Claim(c *gin.Context) {
	player := playerFrom(c)
	ctx := c.Request.Context()

	amount, err := h.gameEngine.Claim(ctx, player)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if h.notifier != nil {
		h.notifier.BalanceChanged(player)
	}

	next, err := h.gameEngine.GetNextClaimTime(ctx, player)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"amount":          amount,
		"formatted":       models.FormatUnits(amount),
		"next_claim_time": next,
	})
}

func (h *WalletHandler) GetNextClaim(c *gin.Context) {
	next, canClaim, err := h.gameEngine.ClaimStatus(c.Request.Context(), playerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{
		"success":   true,
		"can_claim": canClaim,
	}
	if !next.IsZero() {
		resp["next_claim_time"] = next
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > services.MaxHistory {
		limit = 50
	}

	transactions, err := h.gameEngine.GetTransactions(c.Request.Context(), playerFrom(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": transactions,
		"count":        len(transactions),
	})
}
