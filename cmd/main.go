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

	"github.com/Dosada05/tennis-planner/config"
	"github.com/Dosada05/tennis-planner/db"
	_ "github.com/Dosada05/tennis-planner/docs"
	"github.com/Dosada05/tennis-planner/handlers"
	"github.com/Dosada05/tennis-planner/identity"
	"github.com/Dosada05/tennis-planner/live"
	"github.com/Dosada05/tennis-planner/middleware"
	"github.com/Dosada05/tennis-planner/repositories"
	api "github.com/Dosada05/tennis-planner/routes"
	"github.com/Dosada05/tennis-planner/services"
	"github.com/Dosada05/tennis-planner/sessions"
	"github.com/Dosada05/tennis-planner/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

// @title Tennis planner API
// @version 1.0
// @description Tournament planning for a tennis club: parents, coaches and managers.
// @BasePath /
func main() {
	// Настройка логгера
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	handlers.SetLogger(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("read_only", cfg.ReadOnly))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var revocations sessions.RevocationStore = sessions.NewMemoryStore()
	if cfg.RedisURL != "" {
		store, client, err := sessions.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = store
		logger.Info("session revocations stored in redis")
	} else {
		logger.Warn("REDIS_URL not set, session revocations are kept in memory")
	}

	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)

	// Инициализация репозиториев
	tx := repositories.NewTransactor(dbConn)
	accountRepo := repositories.NewPostgresAccountRepository(dbConn)
	identityRepo := repositories.NewPostgresIdentityRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)

	// Инициализация сервисов
	var oauth services.CodeExchanger
	if cfg.OAuthEnabled() {
		oauth = identity.NewOAuthProvider(identity.OAuthConfig{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			AuthURL:      cfg.OAuthAuthURL,
			TokenURL:     cfg.OAuthTokenURL,
			UserInfoURL:  cfg.OAuthUserInfoURL,
			RedirectURL:  cfg.OAuthRedirectURL,
		})
	}
	authService := services.NewAuthService(
		accountRepo,
		identity.NewPasswordProvider(identityRepo, bcrypt.DefaultCost),
		oauth,
		sessions.NewManager(cfg.JWTSecretKey, cfg.SessionTTL),
		revocations,
		logger,
	)
	dashboardService := services.NewDashboardService(accountRepo, playerRepo, tournamentRepo, entryRepo, logger)
	entryService := services.NewEntryService(tx, playerRepo, tournamentRepo, entryRepo, wsHub, cfg.ReadOnly, logger)
	exportService := services.NewExportService(dashboardService, uploader, logger)

	if cfg.MailEnabled() {
		scheduler, err := gocron.NewScheduler(gocron.WithLocation(cfg.ClubLocation))
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		mailer := services.NewEmailService(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
		reminders := services.NewReminderService(entryRepo, mailer, cfg.ReminderDaysAhead, cfg.ClubLocation, logger)
		if _, err := reminders.Schedule(scheduler, cfg.ReminderHour); err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Error("scheduler shutdown failed", slog.Any("error", err))
			}
		}()
		logger.Info("deadline reminders scheduled", slog.Int("hour", cfg.ReminderHour))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.RegisterGauge(registry, "websocket_clients", "Connected websocket clients.", func() float64 {
		return float64(wsHub.ClientCount())
	})

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Sessions:       authService,
			SignInLimiter:  middleware.NewIPRateLimiter(cfg.SignInRatePerMinute),
			Metrics:        middleware.NewMetrics(registry),
			Registry:       registry,
			Logger:         logger,
		},
		handlers.NewAuthHandler(authService, cfg.CookieSecure),
		handlers.NewDashboardHandler(dashboardService),
		handlers.NewEntryHandler(entryService),
		handlers.NewExportHandler(exportService),
		handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins),
	)
	logger.Info("routes configured")

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

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}
