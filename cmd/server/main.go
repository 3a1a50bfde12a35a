// Package main runs the storefront platform server: the admin API, the
// metrics endpoint and the public storefront router in one process.
package main

import (
	"context"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/minhtm92-gif/PixEcom-sub002/internal/app"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/httpapi"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/metrics"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage/postgres"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/config"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/middleware"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	_ = godotenv.Load() // allow .env for local runs

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("server", cfg.Logging.Level, cfg.Logging.Format)

	stores, closeDB, err := buildStores(cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("initialise storage")
		os.Exit(1)
	}
	defer closeDB()

	application, err := app.New(stores, app.Options{
		BaseDomains: cfg.Platform.BaseDomains,
		LookupURL:   cfg.Platform.LookupURL,
		LookupKey:   cfg.Platform.LookupKey,
	}, log)
	if err != nil {
		log.WithError(err).Error("initialise application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	handler, err := buildHandler(cfg, application, log)
	if err != nil {
		log.WithError(err).Error("build handler")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}

	log.Info("stopped")
}

// buildStores opens Postgres when a database URL is configured, otherwise the
// in-memory stores carry the state for the process lifetime.
func buildStores(cfg config.DatabaseConfig, log *logging.Logger) (app.Stores, func(), error) {
	if strings.TrimSpace(cfg.URL) == "" {
		log.Warn("no database configured; using in-memory storage")
		return app.Stores{}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return app.Stores{}, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return app.Stores{}, nil, fmt.Errorf("ping postgres: %w", err)
	}

	pg := postgres.New(db)
	if err := pg.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return app.Stores{}, nil, fmt.Errorf("ensure schema: %w", err)
	}

	return app.Stores{Stores: pg, Pages: pg, Domains: pg}, func() { db.Close() }, nil
}

// buildHandler composes the public storefront with the admin API. Admin and
// platform paths bypass the host rewrite, everything else is resolved against
// the tenant domain table.
func buildHandler(cfg config.Config, application *app.Application, log *logging.Logger) (http.Handler, error) {
	admin := http.Handler(httpapi.NewHandler(application))

	if cfg.Auth.PublicKeyPath != "" {
		publicKey, err := loadPublicKey(cfg.Auth.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load auth public key: %w", err)
		}
		admin = middleware.NewAuthMiddleware(publicKey, log, cfg.Auth.SkipPaths).Handler(admin)
	} else {
		log.Warn("auth.public_key_path not set; admin API is unauthenticated")
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst, log)
	limiter.StartCleanup(10 * time.Minute)
	admin = limiter.Handler(admin)
	admin = middleware.NewCORSMiddleware(cfg.Server.AllowedOrigins).Handler(admin)

	storefront := httpapi.NewStorefront(application, log).Handler()

	root := http.NewServeMux()
	root.Handle("/api/", admin)
	root.Handle("/healthz", admin)
	root.Handle("/metrics", admin)
	root.Handle("/", storefront)

	var handler http.Handler = root
	handler = metrics.InstrumentHandler(handler)
	handler = middleware.NewTracingMiddleware(log).Handler(handler)
	return handler, nil
}

func loadPublicKey(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}
