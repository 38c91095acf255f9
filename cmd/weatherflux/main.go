package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speedwagon-io/weatherflux/internal/collector"
	"github.com/speedwagon-io/weatherflux/internal/collector/adapters"
	"github.com/speedwagon-io/weatherflux/internal/config"
	"github.com/speedwagon-io/weatherflux/internal/health"
	"github.com/speedwagon-io/weatherflux/internal/inventory"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
	"github.com/speedwagon-io/weatherflux/internal/metrics"
	"github.com/speedwagon-io/weatherflux/internal/registry"
)

const (
	exitOK = iota
	exitFailure
	exitListener
	exitConfigUnreadable
	exitConfigNotFound
	exitConfigInvalid
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	modeFlag := flag.String("mode", string(collector.ModeDaemon), "running mode: daemon, console or observation")
	probe := flag.Bool("healthcheck", false, "query the health endpoint and exit")
	flag.Parse()

	if *probe {
		return healthcheck(*configPath)
	}

	mode, err := collector.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		sl.SetupLogger("info", sl.FormatJSON).Error("failed to load configuration",
			slog.String("path", *configPath),
			sl.Err(err),
		)
		return exitCode(err)
	}

	format := cfg.Log.Format
	if mode == collector.ModeConsole {
		format = sl.FormatPretty
	}
	log := sl.SetupLogger(cfg.Log.Level, format)

	store := config.NewStoreFrom(log, *configPath, cfg)
	snap := store.Load()

	log.Info("starting weatherflux",
		slog.String("mode", string(mode)),
		slog.String("config", *configPath),
		slog.String("snapshot_id", snap.ID),
		slog.Bool("strict", snap.Strict()),
	)

	m := metrics.New()
	reg := registry.New()

	var inv *inventory.SQLiteInventory
	if cfg.Inventory.Path != "" {
		inv, err = inventory.NewSQLiteInventory(log, cfg.Inventory.Path)
		if err != nil {
			log.Error("failed to open device inventory", sl.Err(err))
			return exitFailure
		}
		defer func() {
			if err := inv.Close(); err != nil {
				log.Error("failed to close device inventory", sl.Err(err))
			}
		}()
		log.Info("device inventory enabled", slog.String("path", cfg.Inventory.Path))
	}

	source := adapters.NewUDPSource(log, cfg.Listen.Address)
	if err := source.Listen(); err != nil {
		log.Error("failed to open listener", sl.Err(err))
		return exitListener
	}

	var devices inventory.Inventory
	if inv != nil {
		devices = inv
	}
	manager := collector.NewManager(log, store, source, reg, devices, m, mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mode != collector.ModeObservation {
		manager.ConnectSink(ctx)
	}

	store.OnChange(func(prev, next *config.Snapshot) {
		m.ConfigReloads.WithLabelValues("ok").Inc()
		manager.ApplySnapshot(ctx, prev, next)
	})
	store.OnError(func(err error) {
		m.ConfigReloads.WithLabelValues("error").Inc()
	})
	go store.Watch(ctx, 0)

	endpoints := health.Endpoints{
		Stats:   func() any { return manager.Stats() },
		SeenIDs: reg.IDs,
		Metrics: m.Handler(),
	}
	if inv != nil {
		endpoints.Inventory = inv
	}

	healthServer := health.NewServer(log, cfg.Health.Address, endpoints)
	if mode != collector.ModeObservation {
		healthServer.AddChecker(health.NewSinkHealthChecker(manager.SinkHealth))
	}
	if inv != nil {
		healthServer.AddChecker(health.NewInventoryHealthChecker(inv.Ping, inv.Count))
	}

	if err := healthServer.Start(); err != nil {
		log.Error("failed to start health server", sl.Err(err))
		return exitFailure
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	if err := manager.Start(ctx); err != nil {
		log.Error("engine stopped with error", sl.Err(err))
	}

	manager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthServer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop health server", sl.Err(err))
	}

	log.Info("weatherflux stopped")
	return exitOK
}

func defaultConfigPath() string {
	if path := os.Getenv("WF_CONFIG"); path != "" {
		return path
	}
	return config.DefaultPath
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrNotFound):
		return exitConfigNotFound
	case errors.Is(err, config.ErrUnreadable):
		return exitConfigUnreadable
	case errors.Is(err, config.ErrEmpty), errors.Is(err, config.ErrInvalid):
		return exitConfigInvalid
	default:
		return exitFailure
	}
}
