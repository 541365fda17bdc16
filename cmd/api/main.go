package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/fvcommerce-golang/internal/auth"
	"github.com/01moynul/fvcommerce-golang/internal/config"
	"github.com/01moynul/fvcommerce-golang/internal/database"
	"github.com/01moynul/fvcommerce-golang/internal/handlers"
	"github.com/01moynul/fvcommerce-golang/internal/middleware"
	"github.com/01moynul/fvcommerce-golang/internal/payment"
	"github.com/01moynul/fvcommerce-golang/internal/routes"
	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Storage ---
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// 2. --- Services ---
	services := service.New(st, service.Options{
		Merchant: payment.Merchant{
			VPA:      cfg.UPIMerchantVPA,
			Name:     cfg.UPIMerchantName,
			Code:     cfg.UPIMerchantCode,
			Currency: cfg.UPICurrency,
		},
		Renderer:       payment.QRRenderer{Size: cfg.QRImageSize},
		AdminSignupKey: cfg.AdminSignupKey,
		Logger:         logger,
	})

	// --- Application Setup ---
	app := handlers.New(services, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), logger)
	router := routes.SetupRouter(app, routes.Options{
		AllowedOrigin: cfg.CORSAllowedOrigin,
		LoginLimiter:  middleware.NewIPRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("starting FV Commerce API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "fvcommerce").Logger()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := database.OpenDB(ctx, cfg.DBDSN, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := database.Migrate(db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store.NewMySQLStore(db), nil
}
