package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/handler"
	"github.com/stemsi/examenv-backend/internal/metrics"
	"github.com/stemsi/examenv-backend/internal/middleware"
	"github.com/stemsi/examenv-backend/internal/response"
	"github.com/stemsi/examenv-backend/internal/service"
	"github.com/stemsi/examenv-backend/internal/tracing"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	ExamEnvironment *handler.ExamEnvironmentHandler
	Screenshot      *handler.ScreenshotHandler
	Health          *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.HeaderEnvironmentToken}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(tracing.Middleware())
	router.Use(metrics.Middleware())

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── Exam Environment ──────────────────────────────────────────────
	examEnv := router.Group("/api/v1/exam-environment")
	examEnv.Use(middleware.NoStore())

	// Token verification is unauthenticated, so throttle it per IP.
	verifyLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	examEnv.POST("/token/verify", verifyLimiter.Middleware(), handlers.ExamEnvironment.VerifyToken)

	authed := examEnv.Group("")
	authed.Use(middleware.RequireEnvironmentToken(authService))
	{
		authed.POST("/exam/generate", handlers.ExamEnvironment.GenerateExam)
		authed.POST("/exam/attempt", handlers.ExamEnvironment.SubmitAttempt)
		authed.POST("/screenshot", handlers.Screenshot.Upload)
	}

	return router
}
