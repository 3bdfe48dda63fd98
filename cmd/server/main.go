package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stayhub/stayhub-backend/internal/config"
	"github.com/stayhub/stayhub-backend/internal/cooldown"
	"github.com/stayhub/stayhub-backend/internal/db"
	httpHandlers "github.com/stayhub/stayhub-backend/internal/http/handlers"
	httpRouter "github.com/stayhub/stayhub-backend/internal/http/router"
	"github.com/stayhub/stayhub-backend/internal/logger"
	"github.com/stayhub/stayhub-backend/internal/notify"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/service"
	"github.com/stayhub/stayhub-backend/internal/token"
)

const siteName = "StayHub"

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Redis держит кулдауны отправок и статусы доставки SMS.
	redisClient, err := db.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("main: ошибка подключения к redis: %v", err)
	}
	defer redisClient.Close()

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	activationCodec := token.NewCodec(cfg.ActivationSecret, cfg.ActivationTokenTTL)
	gate := cooldown.NewRedisGate(redisClient)
	statuses := cooldown.NewRedisStatusStore(redisClient)

	// Очередь отправки уведомлений.
	emailSender := notify.NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	smsSender := notify.NewTwilioSMSSender(cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSBaseURL, cfg.SMSDryRun)
	dispatcher := notify.NewQueueDispatcher(emailSender, smsSender, notify.Options{
		Workers:     cfg.DispatchWorkers,
		QueueSize:   cfg.DispatchQueueSize,
		TaskTimeout: cfg.DispatchTimeout,
		TaskExpiry:  cfg.TaskExpiry,
	})
	defer dispatcher.Close()

	// Репозитории.
	accountRepo := repository.NewAccountRepository(dbConn)
	smsCodeRepo := repository.NewSmsCodeRepository(dbConn)

	// Сервисы.
	emailVerification := service.NewEmailVerificationService(
		accountRepo, gate, activationCodec, dispatcher, cfg.PublicBaseURL, cfg.CooldownWindow)
	phoneVerification := service.NewPhoneVerificationService(
		accountRepo, smsCodeRepo, gate, statuses, dispatcher,
		cfg.SMSFromNumber, siteName, cfg.CooldownWindow, cfg.DispatchTimeout)
	authService := service.NewAuthService(accountRepo, tokenManager, emailVerification)
	profileService := service.NewProfileService(accountRepo, phoneVerification)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	accountHandler := httpHandlers.NewAccountHandler(accountRepo, emailVerification)
	profileHandler := httpHandlers.NewProfileHandler(accountRepo, profileService)
	verificationHandler := httpHandlers.NewVerificationHandler(accountRepo, phoneVerification)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, redisClient)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, accountHandler, profileHandler, verificationHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
