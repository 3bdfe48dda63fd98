package router

import (
	"github.com/gin-gonic/gin"

	"github.com/stayhub/stayhub-backend/internal/config"
	"github.com/stayhub/stayhub-backend/internal/http/handlers"
	"github.com/stayhub/stayhub-backend/internal/http/middleware"
	"github.com/stayhub/stayhub-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	profileHandler *handlers.ProfileHandler,
	verificationHandler *handlers.VerificationHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	// Ссылка из письма открывается без авторизации и живёт вне /api:
	// письмо несёт путь с завершающим слэшем, вариант без него доезжает
	// через RedirectTrailingSlash.
	r.GET("/accounts/activate/:uid/:token/", accountHandler.Activate)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetMe)
		protected.PUT("/profile", profileHandler.UpdateMe)

		// Повторные отправки прижаты и рейт-лимитом, и кулдаун-гейтом.
		resendRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/accounts/confirmation/resend", resendRateLimit, accountHandler.ResendConfirmation)

		verifRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/verification/phone", verifRateLimit, verificationHandler.VerifyPhone)
		protected.GET("/verification/phone/status", verificationHandler.DeliveryStatus)
	}

	return r
}
