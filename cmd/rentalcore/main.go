package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"rentalcore/internal/auth"
	"rentalcore/internal/config"
	"rentalcore/internal/db"
	"rentalcore/internal/fleet"
	"rentalcore/internal/httpserver"
	"rentalcore/internal/logging"
	"rentalcore/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rentalcore stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, dialect, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn, dialect); err != nil {
		return err
	}

	userStore := auth.NewStore(conn, dialect)
	authSvc := auth.NewService(userStore, auth.NewBcryptHasher(0), cfg.JWTSecret, cfg.TokenTTL, nil, logger)

	if cfg.UsersPath != "" {
		n, err := authSvc.Credentials().SeedFromFile(ctx, cfg.UsersPath)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		logger.Info("seeded users", "path", cfg.UsersPath, "created", n)
	}

	proxies, err := httpserver.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Logger:     logger,
		Auth:       authSvc,
		Fleet:      &fleet.Handler{Store: fleet.NewStore(conn, dialect), Logger: logger},
		Metrics:    metrics.New(),
		DB:         userStore,
		CORSOrigin: cfg.CORSOrigin,
		LoginRate:  cfg.LoginRate,
		LoginBurst: cfg.LoginBurst,

		TrustedProxies: proxies,
	})

	return httpserver.New(cfg.HTTPAddr, router, logger).ListenAndRun(ctx)
}
