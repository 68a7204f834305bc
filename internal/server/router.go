// Package server assembles the HTTP routes of the API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"valuator/internal/handlers"
	"valuator/internal/metrics"
	"valuator/internal/middleware"
	"valuator/internal/services"
)

// Services are the business services the routes are served from.
type Services struct {
	Users        services.UserServicer
	Portfolios   services.PortfolioServicer
	Transactions services.TransactionServicer
	Valuations   services.ValuationServicer
	Snapshots    services.PortfolioSnapshotServicer
}

// Options tune the router. Zero values disable the optional surfaces.
type Options struct {
	PipelineAPIKey string
	Metrics        *metrics.Metrics
	Swagger        bool
	// HealthCheck reports dependency health for /api/health; nil means always ok.
	HealthCheck func() error
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users)
	portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolios)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	valuationHandler := handlers.NewValuationHandler(svc.Valuations, svc.Portfolios)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Valuations)
	snapshotHandler := handlers.NewPortfolioSnapshotHandler(svc.Snapshots)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/api/health", func(c *gin.Context) {
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Pipeline routes (X-API-Key)
	pipeline := v1.Group("/pipeline", middleware.PipelineAuthMiddleware(opts.PipelineAPIKey))
	pipeline.POST("/snapshots", snapshotHandler.ComputeSnapshots)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.GetUserPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolioByID)
	portfolios.PUT("/:id", portfolioHandler.UpdatePortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)
	portfolios.POST("/:id/transactions", transactionHandler.CreateTransaction)
	portfolios.GET("/:id/transactions", transactionHandler.GetPortfolioTransactions)
	portfolios.GET("/:id/transactions/stats", transactionHandler.GetTransactionStats)
	portfolios.GET("/:id/history", valuationHandler.GetHistory)
	portfolios.GET("/:id/history/export", valuationHandler.ExportHistory)
	portfolios.GET("/:id/allocation", valuationHandler.GetAllocation)
	portfolios.GET("/:id/metrics", valuationHandler.GetMetrics)
	portfolios.GET("/:id/snapshots", snapshotHandler.GetSnapshots)

	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	analytics := protected.Group("/analytics")
	analytics.POST("/valuation", analyticsHandler.ComputeValuation)
	analytics.POST("/risk", analyticsHandler.ComputeRisk)

	return router
}
