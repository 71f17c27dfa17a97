package handler

import (
	"net/http"

	"splitledger/internal/adapter/http/middleware"
	"splitledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	AnalyticsSvc   ports.AnalyticsService
	GroupSvc       ports.GroupService
	UserSvc        ports.UserService
	TokenSvc       ports.TokenService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(12 << 20)) // 12 MB: receipts arrive base64-encoded

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/otp/send", rl("auth_otp"), authHandler.SendOTP)
		auth.POST("/otp/verify", rl("auth_otp"), authHandler.VerifyOTP)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	expenseHandler := NewExpenseHandler(deps.LedgerSvc)
	expenses := v1.Group("/expenses", jwtAuth)
	{
		expenses.GET("", rl("expenses"), expenseHandler.List)
		expenses.POST("", rl("expenses"), expenseHandler.Create)
		expenses.GET("/group/:groupId", rl("expenses"), expenseHandler.ListByGroup)
		expenses.PUT("/:id", rl("expenses"), expenseHandler.Update)
		expenses.DELETE("/:id", rl("expenses"), expenseHandler.Delete)
	}

	settlementHandler := NewSettlementHandler(deps.LedgerSvc)
	settlements := v1.Group("/settlements", jwtAuth)
	{
		settlements.GET("", rl("settlements"), settlementHandler.List)
		settlements.POST("", rl("settlements"), settlementHandler.Create)
	}

	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsSvc)
	analytics := v1.Group("/analytics", jwtAuth)
	{
		analytics.GET("/summary", rl("analytics"), analyticsHandler.Summary)
	}

	groupHandler := NewGroupHandler(deps.GroupSvc)
	groups := v1.Group("/groups", jwtAuth)
	{
		groups.GET("", rl("groups"), groupHandler.List)
		groups.POST("", rl("groups"), groupHandler.Create)
		groups.PUT("/:id", rl("groups"), groupHandler.Update)
		groups.DELETE("/:id", rl("groups"), groupHandler.Delete)
	}

	userHandler := NewUserHandler(deps.UserSvc)
	users := v1.Group("/users", jwtAuth)
	{
		users.GET("", rl("users"), userHandler.Lookup)
		users.GET("/me", rl("users"), userHandler.Me)
		users.PUT("/me", rl("users"), userHandler.UpdateMe)
		users.PUT("/me/push-token", rl("users"), userHandler.SetPushToken)
	}

	return r
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
