package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/exitprep/exitprep-backend/internal/config"
	"github.com/exitprep/exitprep-backend/internal/handler"
	"github.com/exitprep/exitprep-backend/internal/middleware"
	"github.com/exitprep/exitprep-backend/internal/response"
	"github.com/exitprep/exitprep-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	Attempt   *handler.AttemptHandler
	Dashboard *handler.DashboardHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list; otherwise
	// allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Auth group (public, rate limited).
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		auth.POST("/logout",
			middleware.RequireUserJWT(authService),
			middleware.CheckSession(authService),
			handlers.Auth.Logout,
		)
		auth.GET("/me",
			middleware.RequireUserJWT(authService),
			middleware.CheckSession(authService),
			handlers.Auth.Me,
		)
	}

	// Catalog and attempts (optional auth: guests run attempts without
	// persistence, signed-in users get resume and history).
	api := router.Group("/api/v1")
	api.Use(
		middleware.OptionalUserJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		api.GET("/exams", handlers.Exam.List)
		// Exams are immutable once created, so payloads are safe to cache
		// briefly at the client.
		api.GET("/exams/:exam_id", middleware.CacheControl(300), handlers.Exam.Get)
		api.POST("/exams/:exam_id/attempts", handlers.Attempt.Start)

		api.GET("/attempts/:id", handlers.Attempt.Get)
		api.POST("/attempts/:id/goto", handlers.Attempt.Goto)
		api.POST("/attempts/:id/next", handlers.Attempt.Next)
		api.POST("/attempts/:id/prev", handlers.Attempt.Prev)
		api.POST("/attempts/:id/answer", handlers.Attempt.Answer)
		api.POST("/attempts/:id/confidence", handlers.Attempt.Confidence)
		api.POST("/attempts/:id/flag", handlers.Attempt.Flag)
		api.POST("/attempts/:id/strike", handlers.Attempt.Strike)
		api.POST("/attempts/:id/check", handlers.Attempt.Check)
		api.POST("/attempts/:id/hide-result", handlers.Attempt.HideResult)
		api.POST("/attempts/:id/submit", handlers.Attempt.Submit)
		api.GET("/attempts/:id/report", handlers.Attempt.Report)
		api.DELETE("/attempts/:id", handlers.Attempt.Discard)
	}

	// Dashboard (auth required).
	dashboard := router.Group("/api/v1/dashboard")
	dashboard.Use(
		middleware.RequireUserJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		dashboard.GET("", handlers.Dashboard.Get)
	}

	// WebSocket timer stream (optional auth via ?token=, mirroring the
	// attempt routes).
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.OptionalUserJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		ws.GET("/attempts/:id/stream", handlers.WS.Stream)
	}

	return router
}
