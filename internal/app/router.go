package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"starkride/internal/handler"
	"starkride/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler        *handler.UserHandler
	DriverHandler      *handler.DriverHandler
	RideRequestHandler *handler.RideRequestHandler
	RideHandler        *handler.RideHandler
	PaymentHandler     *handler.PaymentHandler
	FareHandler        *handler.FareHandler
	Auth               *middleware.Auth
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.Idempotency(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	userAuth := deps.Auth.Require(middleware.RoleUser)
	driverAuth := deps.Auth.Require(middleware.RoleDriver)
	anyAuth := deps.Auth.Require(middleware.RoleUser, middleware.RoleDriver)
	adminAuth := deps.Auth.Require(middleware.RoleAdmin)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Account routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("/me", userAuth, deps.UserHandler.Me)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("/me", driverAuth, deps.DriverHandler.Me)
			drivers.PATCH("/me/status", driverAuth, deps.DriverHandler.UpdateStatus)
		}

		// Ride request pool.
		requests := v1.Group("/ride-requests")
		{
			requests.POST("", userAuth, deps.RideRequestHandler.Create)
			requests.GET("/:key", anyAuth, deps.RideRequestHandler.Get)
			requests.POST("/:key/claim", driverAuth, deps.RideRequestHandler.Claim)
			requests.POST("/:key/expire", userAuth, deps.RideRequestHandler.Expire)
		}

		// Ride lifecycle.
		rides := v1.Group("/rides")
		{
			rides.POST("", driverAuth, deps.RideHandler.Create)
			rides.GET("", userAuth, deps.RideHandler.ListForUser)
			rides.GET("/active", anyAuth, deps.RideHandler.Active)
			rides.GET("/:id", anyAuth, deps.RideHandler.Get)
			rides.POST("/:id/start", driverAuth, deps.RideHandler.Start)
			rides.POST("/:id/status", driverAuth, deps.RideHandler.UpdateStatus)
			rides.POST("/:id/cancel", userAuth, deps.RideHandler.Cancel)
			rides.POST("/:id/rate", anyAuth, deps.RideHandler.Rate)
		}

		// Driver wallet.
		wallet := v1.Group("/wallet", driverAuth)
		{
			wallet.GET("", deps.PaymentHandler.Wallet)
			wallet.GET("/history", deps.PaymentHandler.History)
			wallet.GET("/transactions", deps.PaymentHandler.Transactions)
			wallet.POST("/recharge/order", deps.PaymentHandler.CreateOrder)
			wallet.POST("/recharge/link", deps.PaymentHandler.CreateLink)
			wallet.POST("/recharge/verify", deps.PaymentHandler.Verify)
		}

		// Gateway webhook; authenticated by signature, not by token.
		v1.POST("/webhooks/payment", deps.PaymentHandler.Webhook)

		// Fares.
		fares := v1.Group("/fares")
		{
			fares.GET("", anyAuth, deps.FareHandler.List)
			fares.GET("/quote", anyAuth, deps.FareHandler.Quote)
		}

		admin := v1.Group("/admin", adminAuth)
		{
			admin.POST("/fares", deps.FareHandler.Create)
			admin.PUT("/fares", deps.FareHandler.Update)
		}
	}

	return router
}
