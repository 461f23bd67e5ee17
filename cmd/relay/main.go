package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/stock-relay/internal/auth"
	"github.com/rickgao/stock-relay/internal/broadcast"
	"github.com/rickgao/stock-relay/internal/config"
	"github.com/rickgao/stock-relay/internal/database"
	"github.com/rickgao/stock-relay/internal/eod"
	"github.com/rickgao/stock-relay/internal/listener"
	"github.com/rickgao/stock-relay/internal/server"
	"github.com/rickgao/stock-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	envErr := godotenv.Load()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Warn("no .env file loaded, using process environment", "error", envErr)
	}

	logger.Info("starting relay",
		"version", version.String(),
		"config", *configPath,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("relay exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("relay stopped")
}

func run(cfg *config.RelayConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("database connected")

	// Fan-out path
	registry := broadcast.NewRegistry(logger.With("component", "registry"))
	dispatcher := broadcast.NewDispatcher(
		broadcast.DispatcherConfig{QueueSize: cfg.Relay.QueueSize},
		registry,
		logger.With("component", "dispatcher"),
	)

	changes := listener.New(
		listener.Config{
			Channel:            cfg.Listener.Channel,
			KeepaliveInterval:  cfg.Listener.KeepaliveInterval,
			ReconnectBaseDelay: cfg.Listener.ReconnectBaseDelay,
			ReconnectMaxDelay:  cfg.Listener.ReconnectMaxDelay,
			Jitter:             cfg.Listener.Jitter,
			Retry:              cfg.Listener.RetryEnabled(),
		},
		listener.PGDialer(database.BuildConnString(cfg.Database)),
		dispatcher,
		logger.With("component", "listener"),
	)

	// Request path
	validator := auth.NewValidator(auth.NewPGClientStore(pool), logger.With("component", "auth"))
	prices := eod.NewService(eod.NewPGPriceStore(pool), logger.With("component", "eod"))

	srv := server.New(
		server.Config{
			Service:        "stock-relay",
			Version:        version.Version,
			AuthHeader:     cfg.Auth.Header,
			AuthQueryParam: cfg.Auth.QueryParam,
			SessionBuffer:  cfg.Relay.SessionBuffer,
			WriteTimeout:   cfg.Relay.WriteTimeout,
			PingInterval:   cfg.Relay.PingInterval,
			IdleTimeout:    cfg.Relay.IdleTimeout,
			HealthTimeout:  5 * time.Second,
		},
		server.Deps{
			Validator:  validator,
			Prices:     prices,
			Registry:   registry,
			DB:         pool,
			Listener:   changes,
			Dispatcher: dispatcher,
		},
		logger.With("component", "server"),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	if err := dispatcher.Start(ctx); err != nil {
		return err
	}
	if err := changes.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// HTTP first so no new sessions arrive, then the producer, then the fan-out.
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", "error", err)
		}
		if err := changes.Stop(shutdownCtx); err != nil {
			logger.Warn("listener stop incomplete", "error", err)
		}
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			logger.Warn("dispatcher stop incomplete", "error", err)
		}
		registry.CloseAll()
		return nil
	})

	return g.Wait()
}
