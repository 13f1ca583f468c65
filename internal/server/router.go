// Package server assembles the HTTP router from handlers and middleware.
package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"

	"hearth/internal/handlers"
	"hearth/internal/middleware"

	_ "hearth/internal/docs" // swagger docs
)

// Deps holds everything NewRouter needs.
type Deps struct {
	DB          *gorm.DB
	Services    Services
	Tokens      *middleware.TokenIssuer
	Limiter     *limiter.Limiter
	CORSOrigins []string
	OpsAPIKey   string
	Swagger     bool
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(deps Deps) *gin.Engine {
	svc := deps.Services

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Households, deps.Tokens)
	householdHandler := handlers.NewHouseholdHandler(svc.Households, svc.Audit)
	walletHandler := handlers.NewWalletHandler(svc.Wallets)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Households)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Households, svc.Audit)
	savingsHandler := handlers.NewSavingsHandler(svc.Savings)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	if deps.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", healthCheck(deps.DB))

	v1 := router.Group("/api/v1")
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter))
	}

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Scheduler routes
	ops := v1.Group("/ops")
	ops.Use(middleware.OpsAuthMiddleware(deps.OpsAPIKey))
	ops.POST("/households/:id/budget/reset", budgetHandler.OpsResetPeriod)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))

	protected.GET("/profile", authHandler.GetProfile)

	household := protected.Group("/household")
	household.POST("", householdHandler.CreateHousehold)
	household.GET("", householdHandler.GetHousehold)
	household.POST("/members", householdHandler.AddMember)

	wallets := protected.Group("/wallets")
	wallets.POST("", walletHandler.CreateWallet)
	wallets.GET("", walletHandler.GetUserWallets)
	wallets.GET("/:id", walletHandler.GetWallet)
	wallets.PUT("/:id", walletHandler.UpdateWallet)
	wallets.DELETE("/:id", walletHandler.DeleteWallet)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("/expenses", transactionHandler.CreateExpense)
	transactions.POST("/incomes", transactionHandler.CreateIncome)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budget := protected.Group("/budget")
	budget.PUT("", budgetHandler.ConfigureBudget)
	budget.GET("", budgetHandler.GetBudget)
	budget.PATCH("", budgetHandler.UpdateBudget)
	budget.DELETE("", budgetHandler.DeleteBudget)
	budget.POST("/reset", budgetHandler.ResetPeriod)
	budget.GET("/analysis", budgetHandler.GetAnalysis)

	savings := protected.Group("/savings/goals")
	savings.POST("", savingsHandler.CreateGoal)
	savings.GET("", savingsHandler.GetGoals)
	savings.GET("/:id", savingsHandler.GetGoal)
	savings.POST("/:id/deposit", savingsHandler.Deposit)
	savings.POST("/:id/withdraw", savingsHandler.Withdraw)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
