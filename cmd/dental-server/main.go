package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arcalife/dental-api/internal/config"
	"github.com/arcalife/dental-api/internal/domain/actionlog"
	"github.com/arcalife/dental-api/internal/domain/chart"
	"github.com/arcalife/dental-api/internal/domain/procedure"
	"github.com/arcalife/dental-api/internal/platform/auth"
	"github.com/arcalife/dental-api/internal/platform/chartcache"
	"github.com/arcalife/dental-api/internal/platform/db"
	"github.com/arcalife/dental-api/internal/platform/middleware"
	"github.com/arcalife/dental-api/internal/platform/registry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dental-server",
		Short: "Dental clinic procedure ledger API server",
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

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate bridge-notes: one-off backfill of structured bridge columns
	// from legacy notes text.
	cmd.AddCommand(&cobra.Command{
		Use:   "bridge-notes",
		Short: "Backfill structured bridge fields from legacy notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			procSvc := procedure.NewService(procedure.NewRepoPG(pool), registry.NewRegistryPG(pool))
			count, err := procSvc.MigrateLegacyBridgeNotes(ctx)
			if err != nil {
				return fmt.Errorf("bridge notes migration failed after %d rows: %w", count, err)
			}

			fmt.Printf("Migrated %d record(s) to structured bridge fields.\n", count)
			return nil
		},
	})

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Chart cache (optional)
	var cache chartcache.Cache = chartcache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := chartcache.NewRedisCacheURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		cache = redisCache
		logger.Info().Msg("chart cache enabled")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API group
	apiV1 := e.Group("/api/v1")

	// Procedure code registry. Development mode falls back to the seeded
	// in-memory catalog so the server runs without the codes table loaded.
	var codes registry.Registry
	if cfg.IsDev() {
		codes = registry.NewMemoryRegistry()
	} else {
		codes = registry.NewRegistryPG(pool)
	}

	// Procedure ledger
	procRepo := procedure.NewRepoPG(pool)
	procSvc := procedure.NewService(procRepo, codes)
	procHandler := procedure.NewHandler(procSvc)
	procHandler.RegisterRoutes(apiV1)

	// Action log and undo engine
	logRepo := actionlog.NewRepoPG(pool)
	logSvc := actionlog.NewService(logRepo, procRepo, cache, logger)
	procSvc.SetActionRecorder(logSvc)
	logHandler := actionlog.NewHandler(logSvc)
	logHandler.RegisterRoutes(apiV1)

	// Tooth chart reconstruction
	chartSvc := chart.NewService(procRepo, codes)
	chartHandler := chart.NewHandler(chartSvc)
	chartHandler.RegisterRoutes(apiV1)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
	if cfg.TLSEnabled {
		return e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
	}
	return e.Start(addr)
}
