package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"baccarat-backend/internal/baccarat"
	"baccarat-backend/internal/services"
)

var statusByError = []struct {
	err    error
	status int
}{
	{services.ErrInvalidBetType, http.StatusBadRequest},
	{services.ErrZeroStake, http.StatusBadRequest},
	{services.ErrInvalidAmount, http.StatusBadRequest},
	{services.ErrInvalidCommitment, http.StatusBadRequest},
	{services.ErrStakeOutOfRange, http.StatusBadRequest},
	{baccarat.ErrInvalidDeckCount, http.StatusBadRequest},
	{baccarat.ErrPayoutOverflow, http.StatusBadRequest},
	{services.ErrInsufficientBalance, http.StatusPaymentRequired},
	{services.ErrInsufficientAllowance, http.StatusPaymentRequired},
	{services.ErrGameNotFound, http.StatusNotFound},
	{services.ErrGameInProgress, http.StatusConflict},
	{services.ErrInvalidStateTransition, http.StatusConflict},
	{services.ErrRevealMismatch, http.StatusConflict},
	{services.ErrBalanceOverflow, http.StatusConflict},
	{services.ErrRateLimited, http.StatusTooManyRequests},
	{services.ErrCooldownNotElapsed, http.StatusTooManyRequests},
	{services.ErrSessionNotFound, http.StatusUnauthorized},
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	for _, se := range statusByError {
		if errors.Is(err, se.err) {
			return se.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *log.Logger, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		message = "internal error"
	}
	c.JSON(status, gin.H{
		"error": message,
		"code":  services.ErrorCode(err),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "invalid request: " + err.Error(),
		"code":  "invalid_request",
	})
}

// bindJSON decodes the body into obj. A bet type rejected while decoding
// keeps its categorical code; any other decode failure is invalid_request.
func bindJSON(c *gin.Context, logger *log.Logger, obj any) bool {
	err := c.ShouldBindJSON(obj)
	switch {
	case err == nil:
		return true
	case errors.Is(err, baccarat.ErrInvalidBetType):
		respondError(c, logger, err)
	default:
		badRequest(c, err)
	}
	return false
}

func playerFrom(c *gin.Context) string {
	return c.GetString("player")
}
