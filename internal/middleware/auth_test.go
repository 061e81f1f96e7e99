package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-backend/internal/config"
	"baccarat-backend/internal/middleware"
	"baccarat-backend/internal/services"
)

func setup(t *testing.T) (*services.RedisService, *services.JWTService, *quartz.Mock, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rs := services.NewRedisServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rs.Close() })

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC))
	return rs, services.NewJWTService(&config.Config{JWTSecret: "secret", JWTTTL: time.Hour}, clock), clock, mr
}

func authedRouter(rs *services.RedisService, jwtService *services.JWTService) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", middleware.AuthMiddleware(jwtService, rs), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("player")+"/"+c.GetString("session_id"))
	})
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	rs, jwtService, clock, _ := setup(t)
	r := authedRouter(rs, jwtService)

	token, session, err := jwtService.Issue(context.Background(), rs, "alice")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		w := get(r, "/whoami", map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice/"+session.SessionID, w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := get(r, "/whoami?token="+token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("records last access", func(t *testing.T) {
		clock.Advance(5 * time.Minute)
		w := get(r, "/whoami", map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code)

		stored, err := rs.GetPlayerSession(context.Background(), "alice", session.SessionID)
		require.NoError(t, err)
		assert.True(t, stored.LastAccessed.Equal(clock.Now()), "last access comes from the injected clock")
		assert.True(t, stored.CreatedAt.Equal(session.CreatedAt))
	})

	t.Run("missing", func(t *testing.T) {
		w := get(r, "/whoami", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header required")
	})

	t.Run("bad scheme", func(t *testing.T) {
		w := get(r, "/whoami", map[string]string{"Authorization": "Basic " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization format")
	})

	t.Run("revoked session", func(t *testing.T) {
		other, s, err := jwtService.Issue(context.Background(), rs, "bob")
		require.NoError(t, err)
		require.NoError(t, rs.DeletePlayerSession(context.Background(), "bob", s.SessionID))

		w := get(r, "/whoami", map[string]string{"Authorization": "Bearer " + other})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Session expired or revoked")
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		w := get(r, "/whoami", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rs, _, _, mr := setup(t)

	r := gin.New()
	r.GET("/verify", middleware.RateLimitMiddleware(rs, "verify", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, get(r, "/verify", nil).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/verify", nil).Code)

	w := get(r, "/verify", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusNoContent, get(r, "/verify", nil).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	rs, _, _, _ := setup(t)

	r := gin.New()
	r.GET("/verify", middleware.RateLimitMiddleware(rs, "verify", 0, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, get(r, "/verify", nil).Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS())
	r.OPTIONS("/api/games/bet", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/games/bet", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
