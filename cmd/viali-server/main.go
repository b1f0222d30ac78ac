package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/drmauij/viali/internal/config"
	"github.com/drmauij/viali/internal/domain/audit"
	"github.com/drmauij/viali/internal/domain/hospital"
	"github.com/drmauij/viali/internal/domain/inventory"
	"github.com/drmauij/viali/internal/domain/record"
	"github.com/drmauij/viali/internal/domain/set"
	"github.com/drmauij/viali/internal/platform/auth"
	"github.com/drmauij/viali/internal/platform/db"
	"github.com/drmauij/viali/internal/platform/metrics"
	"github.com/drmauij/viali/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viali-server",
		Short: "Clinical inventory usage ledger API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	m := metrics.New()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/healthz", db.HealthHandler(pool))
	e.GET("/metrics", m.Handler())

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		limiter = middleware.NewRedisLimiter(redis.NewClient(opts), rateLimitCfg)
		logger.Info().Msg("using redis rate limiter")
	} else {
		limiter = middleware.NewMemoryLimiter(rateLimitCfg)
	}
	apiV1.Use(middleware.RateLimit(limiter))

	if cfg.IsDev() {
		apiV1.Use(auth.DevAuth())
	} else {
		apiV1.Use(auth.JWT(cfg.JWTSecret))
	}
	apiV1.Use(auth.HospitalContext())

	// Repositories and services. The hospital gate backs every access check.
	hospitalRepo := hospital.NewRepoPG(pool)
	hospitalSvc := hospital.NewService(hospitalRepo)
	gate := hospital.NewGate(hospitalRepo)

	recordRepo := record.NewRepoPG(pool)
	recordSvc := record.NewService(recordRepo)

	auditRepo := audit.NewRepoPG(pool)
	auditSvc := audit.NewService(auditRepo)

	inventoryRepo := inventory.NewRepoPG(pool)
	inventorySvc := inventory.NewService(inventoryRepo, recordSvc, hospitalSvc, gate,
		auditSvc, db.NewRunner(pool), m, logger)

	setRepo := set.NewRepoPG(pool)
	setEngine := set.NewEngine(setRepo, recordSvc, inventorySvc, gate, auditSvc, m, logger)

	hospital.NewHandler(hospitalSvc, gate).RegisterRoutes(apiV1)
	record.NewHandler(recordSvc, gate).RegisterRoutes(apiV1)
	inventory.NewHandler(inventorySvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditSvc, gate).RegisterRoutes(apiV1)
	set.NewHandler(setEngine).RegisterRoutes(apiV1)

	// Serve with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
