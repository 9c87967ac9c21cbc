package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/wsob-poker/config"
	"github.com/Dosada05/wsob-poker/db"
	_ "github.com/Dosada05/wsob-poker/docs"
	"github.com/Dosada05/wsob-poker/handlers"
	"github.com/Dosada05/wsob-poker/repositories"
	api "github.com/Dosada05/wsob-poker/routes"
	"github.com/Dosada05/wsob-poker/services"
	"github.com/Dosada05/wsob-poker/storage"
	"github.com/Dosada05/wsob-poker/utils"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
)

// @title WSOB Poker League API
// @version 1.0
// @description Учёт домашних покерных турниров: игроки, правила, игры и расчёт выплат.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger, err := utils.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to configure logger", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		PingTimeout:     cfg.DBPingTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn, logger)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Хранилище R2 необязательно: без него аватары и архив расчётов отключены.
	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage is not configured; avatars and report archives are disabled")
	}

	clock := quartz.NewReal()

	// Инициализация репозиториев
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	ruleRepo := repositories.NewPostgresRuleRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	gameDataRepo := repositories.NewPostgresGameDataRepository(dbConn)
	settlementRepo := repositories.NewPostgresSettlementRepository(dbConn)
	leaderboardRepo := repositories.NewPostgresLeaderboardRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	transactor := services.NewSQLTransactor(dbConn, logger)
	tokens := services.NewJWTTokenManager(cfg.JWTSecretKey, cfg.SessionTTL, clock)
	authService := services.NewAuthService(playerRepo, tokens, uploader)
	playerService := services.NewPlayerService(playerRepo, uploader, cfg.BcryptCost, logger)
	ruleService := services.NewRuleService(transactor, ruleRepo)
	gameService := services.NewGameService(transactor, gameRepo, gameDataRepo, ruleRepo, uploader)
	settlementService := services.NewSettlementService(
		transactor,
		gameRepo,
		gameDataRepo,
		ruleRepo,
		settlementRepo,
		uploader,
		clock,
		logger,
	)
	leaderboardService := services.NewLeaderboardService(leaderboardRepo)
	dashboardService := services.NewDashboardService(playerRepo, gameRepo, gameDataRepo, gameService)
	logger.Info("Services initialized")

	// Планировщик досчитывает игры, завершённые без сохранённого расчёта.
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	var sweeper gocron.Scheduler
	if cfg.SettlementSweepInterval > 0 {
		sweeper, err = services.StartSettlementSweeper(appCtx, settlementService, cfg.SettlementSweepInterval, logger)
		if err != nil {
			logger.Error("failed to start settlement sweeper", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	gameHandler := handlers.NewGameHandler(gameService, settlementService)
	seasonHandler := handlers.NewSeasonHandler(leaderboardService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		tokens,
		cfg.CORSAllowedOrigins,
		authHandler,
		playerHandler,
		ruleHandler,
		gameHandler,
		seasonHandler,
		dashboardHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}
	}

	cancelApp()
	if sweeper != nil {
		if err := sweeper.Shutdown(); err != nil {
			logger.Error("failed to stop settlement sweeper", slog.Any("error", err))
		}
	}
	logger.Info("application exited")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
