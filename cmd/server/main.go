package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/eloladder/internal/api"
	"github.com/mcoot/eloladder/internal/config"
	"github.com/mcoot/eloladder/internal/factory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate has already checked the level
	level, _ := cfg.Level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	app, err := factory.New(factory.FromConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	if !app.Identity.AdminEnabled() {
		logger.Info("admin routes disabled", slog.String("hint", "set "+config.EnvAdminKeyHash))
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Engine:     app.Engine,
		Identity:   app.Identity,
		HubManager: app.HubManager,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Closing the hubs on shutdown ends open event streams so Shutdown can drain
	go app.HubManager.Run(ctx, time.Minute)

	logger.Info("ladder server starting",
		slog.String("storage", cfg.Storage.Type),
		slog.Float64("initial_rating", app.Engine.Config().InitialRating),
		slog.Float64("k_factor", app.Engine.Config().Elo.KFactor),
	)

	return server.Run(ctx)
}
