package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"toll-engine/internal/auth"
	"toll-engine/internal/config"
	"toll-engine/internal/db"
	"toll-engine/internal/engine"
	httphandler "toll-engine/internal/http"
	"toll-engine/internal/http/middleware"
	"toll-engine/internal/ledger"
	"toll-engine/internal/logger"
	"toll-engine/internal/natsserver"
	"toll-engine/internal/registry"
	"toll-engine/internal/repository"
	"toll-engine/internal/service"
	"toll-engine/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	zoneRepo := repository.NewZoneRepository(database)
	cameraRepo := repository.NewCameraRepository(database)
	pathwayRepo := repository.NewPathwayRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	tripRepo := repository.NewTripRepository(database)

	topo := engine.NewTopology()
	topologyService := service.NewTopologyService(zoneRepo, cameraRepo, pathwayRepo, topo, appLogger)
	if err := topologyService.LoadTopology(context.Background()); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load topology")
	}

	broker, err := natsserver.New(cfg.NATS.Port)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start embedded NATS")
	}
	defer broker.Shutdown()

	tripLedger := ledger.New(tripRepo, broker.Conn(), appLogger)

	var plateRegistry registry.Gateway
	if cfg.Registry.ServiceURL != "" {
		plateRegistry = registry.NewClient(cfg)
	} else {
		plateRegistry = registry.NewLocal(vehicleRepo)
	}

	gate := engine.NewDedupGate(cfg.Engine.SightingCooldown)
	manager := engine.NewManager(topo, gate, plateRegistry, tripLedger, appLogger, engine.Config{
		SessionTimeout:  cfg.Engine.SessionTimeout,
		RegistryTimeout: cfg.Registry.Timeout,
	})

	feedHub, err := stream.NewHub(tripLedger, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start trip feed hub")
	}
	defer feedHub.Close()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(manager, topologyService, tripLedger, feedHub, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, manager, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info().Str("addr", addr).Msg("starting toll engine")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := manager.RunSweeper(gctx, cfg.Engine.SweepInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error().Err(err).Msg("toll engine stopped")
		os.Exit(1)
	}
	appLogger.Info().Msg("toll engine stopped")
}
