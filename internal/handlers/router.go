package handlers

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"baccarat-backend/internal/middleware"
	"baccarat-backend/internal/services"
)

type RouterDeps struct {
	Engine *services.GameEngine
	Redis  *services.RedisService
	JWT    *services.JWTService
	Hub    *WebSocketHub
	Logger *log.Logger

	// PublicRateLimit caps unauthenticated verify calls per client IP per
	// minute. Zero disables it.
	PublicRateLimit int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	var notifier BalanceNotifier
	if deps.Hub != nil {
		notifier = deps.Hub
	}

	gameHandler := NewGameHandler(deps.Engine, deps.Logger)
	walletHandler := NewWalletHandler(deps.Engine, notifier, deps.Logger)
	userHandler := NewUserHandler(deps.Redis, deps.Engine, deps.Logger)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.Logger)

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/games/verify",
		middleware.RateLimitMiddleware(deps.Redis, "verify", deps.PublicRateLimit, time.Minute),
		gameHandler.VerifyGame,
	)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.JWT, deps.Redis))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		games := protected.Group("/games")
		{
			games.POST("/bet", gameHandler.PlaceBet)
			games.POST("/reveal", gameHandler.Reveal)
			games.POST("/settle", gameHandler.Settle)
			games.GET("/active", gameHandler.GetActiveGame)
			games.GET("/history", gameHandler.GetGameHistory)
			games.GET("/:id", gameHandler.GetGame)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/allowance", walletHandler.GetAllowance)
			wallet.POST("/approve", walletHandler.Approve)
			wallet.POST("/claim", walletHandler.Claim)
			wallet.GET("/next-claim", walletHandler.GetNextClaim)
			wallet.GET("/transactions", walletHandler.GetTransactions)
		}
	}

	return router
}
