package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/grandbet/deposit-service/internal/api/handlers/deposit"
	"github.com/grandbet/deposit-service/internal/api/middleware"
)

// Config carries the route-level settings
type Config struct {
	JWTSecret string
}

// SetupRoutes builds the gin router
func SetupRoutes(handlers *deposit.Handlers, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Provider callbacks authenticate with an HMAC signature, not a JWT.
	v1.POST("/callbacks/payment", handlers.HandlePaymentCallback)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		authed.GET("/payment-methods", handlers.ListPaymentMethods)
		authed.GET("/deposits", handlers.ListDeposits)

		sessions := authed.Group("/deposit/sessions")
		{
			sessions.POST("", handlers.OpenSession)
			sessions.GET("/:id", handlers.GetSession)
			sessions.DELETE("/:id", handlers.CloseSession)
			sessions.POST("/:id/method", handlers.SelectMethod)
			sessions.POST("/:id/amount", handlers.SetAmount)
			sessions.POST("/:id/fields", handlers.SetField)
			sessions.POST("/:id/back", handlers.Back)
			sessions.POST("/:id/submit", handlers.Submit)
			sessions.POST("/:id/banner/dismiss", handlers.DismissBanner)
			sessions.POST("/:id/window/closed", handlers.WindowClosed)
			sessions.POST("/:id/window/blocked", handlers.WindowBlocked)
			sessions.POST("/:id/window/new-tab", handlers.WindowNewTab)
			sessions.POST("/:id/window/redirect", handlers.WindowRedirect)
			sessions.POST("/:id/window/retry", handlers.WindowRetry)
			sessions.POST("/:id/window/reopen", handlers.WindowReopen)
		}
	}

	return router
}
