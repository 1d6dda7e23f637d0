package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/database"
)

const (
	// Limites par endpoint
	AuthMaxAttempts  = 10
	OrderMaxAttempts = 5
	APIMaxRequests   = 120 // par minute pour les endpoints généraux

	AuthWindow  = 5 * time.Minute
	OrderWindow = 10 * time.Minute
	APIWindow   = 1 * time.Minute
)

// rateLimit : compteur fenêtré dans Redis. L'incrément et l'expiration
// partent dans un seul pipeline.
func rateLimit(keyPrefix string, max int, window time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		key := keyPrefix + ":" + keyFn(c)

		pipe := database.Redis.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis indisponible : on laisse passer plutôt que de bloquer
			// la boutique.
			c.Next()
			return
		}

		count := incr.Val()
		if count > int64(max) {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de requêtes. Réessayez dans %d secondes", int(ttl.Seconds())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int64(max)-count))
		c.Next()
	}
}

// AuthRateLimit limite les validations de initData par IP.
func AuthRateLimit() gin.HandlerFunc {
	return rateLimit("auth_attempts", AuthMaxAttempts, AuthWindow, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// OrderRateLimit limite les créations de commande par utilisateur.
func OrderRateLimit() gin.HandlerFunc {
	return rateLimit("order_attempts", OrderMaxAttempts, OrderWindow, func(c *gin.Context) string {
		return fmt.Sprintf("%d", UserID(c))
	})
}

// APIRateLimit : garde-fou global par IP.
func APIRateLimit() gin.HandlerFunc {
	return rateLimit("api_requests", APIMaxRequests, APIWindow, func(c *gin.Context) string {
		return c.ClientIP()
	})
}
