package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"baccarat-backend/internal/services"
)

// AuthMiddleware accepts a Bearer token (or ?token= for websocket clients)
// and requires its session to still exist, so logout revokes the token.
func AuthMiddleware(jwtService *services.JWTService, redisService *services.RedisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortUnauthorized(c, "Invalid authorization format")
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				abortUnauthorized(c, "Authorization header required")
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		session, err := redisService.GetPlayerSession(c.Request.Context(), claims.Player, claims.SessionID)
		if err != nil {
			if errors.Is(err, services.ErrSessionNotFound) {
				abortUnauthorized(c, "Session expired or revoked")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed", "code": "internal"})
			return
		}
		if err := redisService.TouchPlayerSession(c.Request.Context(), session, jwtService.Now().UTC()); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session update failed", "code": "internal"})
			return
		}

		c.Set("player", claims.Player)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "code": "unauthorized"})
}

// RateLimitMiddleware limits an action per player, or per client IP on
// public routes.
func RateLimitMiddleware(redisService *services.RedisService, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("player")
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		allowed, err := redisService.CheckRateLimit(c.Request.Context(), key, action, limit, window)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed", "code": "internal"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"code":        services.ErrorCode(services.ErrRateLimited),
				"retry_after": window.Seconds(),
			})
			return
		}

		c.Next()
	}
}

// CORS allows any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
