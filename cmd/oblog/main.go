// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/oblog/internal/auth"
	"github.com/olegiv/oblog/internal/cache"
	"github.com/olegiv/oblog/internal/config"
	"github.com/olegiv/oblog/internal/handler/api"
	"github.com/olegiv/oblog/internal/logging"
	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/scheduler"
	"github.com/olegiv/oblog/internal/service"
	"github.com/olegiv/oblog/internal/session"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oblog - single-author blog server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_DB_DRIVER        Database driver: sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_DB_PATH          SQLite database path (default: ./data/blog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_DB_DSN           MySQL DSN (required for mysql)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ADMIN_USERNAME   Seeded admin username (default: admin)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ADMIN_PASSWORD   Seeded admin password (default: admin123)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_REDIS_URL        Redis URL for the taxonomy cache (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("oblog %s\n", versionInfo)
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations", "driver", cfg.DBDriver)
	if err := store.MigrateDriver(context.Background(), db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	hasher, err := auth.NewHasher(cfg.PasswordScheme)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedConfig{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Email:    cfg.AdminEmail,
		Hasher:   hasher,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	if ttl := cfg.CacheTTLDuration(); ttl > 0 {
		cacheCfg.DefaultTTL = ttl
	}
	appCache := cache.New(cacheCfg)
	defer func() { _ = appCache.Close() }()

	events := service.NewEventService(db)
	taxonomy := service.NewTaxonomyService(db, service.TaxonomyOptions{
		DefaultCategories: cfg.DefaultCategories,
		DefaultTags:       cfg.DefaultTags,
		Cache:             appCache,
	})
	users := service.NewUserService(db, service.UserOptions{
		Hasher:           hasher,
		KeepLegacyHashes: cfg.PasswordScheme == auth.SchemeSHA256,
		DefaultAuthor:    cfg.AdminUsername,
		Events:           events,
	})
	posts := service.NewPostService(db, service.PostOptions{
		TagMatch: cfg.TagMatch,
		Events:   events,
		OnChange: taxonomy.Invalidate,
	})

	sched := scheduler.New(posts, events, logger, scheduler.Options{
		PromoteSchedule: cfg.SchedulerCron,
		PruneSchedule:   cfg.PruneCron,
		EventRetention:  cfg.EventRetention,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	h := api.NewHandler(api.Deps{
		DB:          db,
		Users:       users,
		Posts:       posts,
		Comments:    service.NewCommentService(db),
		Taxonomy:    taxonomy,
		Subscribers: service.NewSubscriberService(db),
		Messages:    service.NewMessageService(db),
		Stats:       service.NewStatsService(db),
		Events:      events,
		Sessions: session.New(db, session.Config{
			Driver:   cfg.DBDriver,
			Lifetime: cfg.SessionLifetime,
			IsDev:    cfg.IsDevelopment(),
		}),
		LoginProtection: loginProtection,
		Scheduler:       sched,
		Cache:           appCache,
		Version:         versionInfo,
	})

	router := api.NewRouter(h, api.RouterConfig{
		IsDev:          cfg.IsDevelopment(),
		Port:           cfg.ServerPort,
		CSRFKey:        []byte(cfg.SessionSecret)[:config.MinSessionSecretLength],
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		LogRequests:    cfg.IsDevelopment(),
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openDatabase opens the configured database, creating the SQLite data
// directory when needed.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	dbCfg := store.DefaultDBConfig()
	dbCfg.Driver = cfg.DBDriver
	dbCfg.Path = cfg.DBPath
	dbCfg.DSN = cfg.DBDSN

	if dbCfg.Driver == store.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		slog.Info("initializing database", "driver", dbCfg.Driver, "path", cfg.DBPath)
	} else {
		slog.Info("initializing database", "driver", dbCfg.Driver)
	}

	db, err := store.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return db, nil
}
