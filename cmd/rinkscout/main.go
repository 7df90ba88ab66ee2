package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/rinkscout/internal/api/rest"
	"github.com/fortuna/rinkscout/internal/api/websocket"
	"github.com/fortuna/rinkscout/internal/cache"
	"github.com/fortuna/rinkscout/internal/config"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/progress"
	"github.com/fortuna/rinkscout/internal/publisher"
	"github.com/fortuna/rinkscout/internal/retry"
	"github.com/fortuna/rinkscout/internal/scheduler"
	"github.com/fortuna/rinkscout/internal/session"
	"github.com/fortuna/rinkscout/internal/store"
	"github.com/fortuna/rinkscout/internal/store/repository"
)

const (
	serviceName    = "rinkscout"
	serviceVersion = "1.0.0"
)

var redisConnect = retry.Policy{Attempts: 10, FailurePause: 2 * time.Second}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.NewConsole(logging.LevelInfo).Error("cannot load .env", "err", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logging.NewConsole(logging.LevelInfo).Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := logging.NewJSON(logging.ParseLevel(cfg.LogLevel)).With("service", serviceName)
	logging.SetDefault(log)
	defer func() { _ = log.Sync() }()

	log.Info("starting", "version", serviceVersion, "driver", cfg.Driver, "season", cfg.DefaultSeason)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		sinks     []session.ResultSink
		observers []progress.Observer
		snapshots []session.SnapshotSource
		archive   rest.Archive
		checks    = map[string]rest.HealthCheck{}
	)

	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			log.Error("failed to run database migrations", "err", err)
			os.Exit(1)
		}
		repo := repository.NewResultRepository(db)
		sinks = append(sinks, repo)
		snapshots = append(snapshots, repo)
		archive = repo
		checks["postgres"] = db.HealthCheck
		log.Info("connected to database")
	}

	if cfg.RedisURL != "" {
		redisCache, err := connectRedis(ctx, cfg, redisConnect, log)
		if err != nil {
			log.Error("failed to connect to redis", "attempts", redisConnect.Attempts, "err", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		streams := publisher.NewRedisStreamPublisher(redisCache.Client(), log)
		sinks = append(sinks, redisCache, streams)
		observers = append(observers, streams)
		// Cache snapshots take precedence over the archive.
		snapshots = append([]session.SnapshotSource{redisCache}, snapshots...)
		checks["redis"] = redisCache.HealthCheck
		log.Info("connected to redis")
	}

	wsServer := websocket.NewServer(log)
	observers = append(observers, wsServer)

	controller := session.NewController(session.ControllerConfig{
		Factory: cfg.DriverFactory(log),
		Components: session.Components{
			Ingest:  cfg.Ingest(),
			Scraper: cfg.Scraper(),
			Logger:  log,
		},
		DefaultSeason: cfg.DefaultSeason,
		Sinks:         sinks,
		Observers:     observers,
		Logger:        log,
	})
	for _, source := range snapshots {
		if err := controller.Restore(ctx, source); err != nil {
			log.Warn("could not restore results", "err", err)
		}
	}

	if cfg.SweepEnabled {
		leagues, err := scheduler.LoadLeagues(cfg.LeaguesFile)
		if err != nil {
			log.Error("cannot load leagues", "err", err)
			os.Exit(1)
		}
		sched := scheduler.New(controller, leagues, cfg.Scheduler(), scheduler.WithLogger(log))
		go func() {
			if err := sched.Run(ctx); err != nil {
				log.Error("scheduler stopped", "err", err)
			}
		}()
	}

	restServer := rest.NewServer(cfg.RESTPort, rest.NewHandler(controller, archive, checks, log).WithExports(cfg.DataDir), cfg.CORSOrigins)
	go func() {
		if err := restServer.Start(); err != nil {
			log.Error("REST server error", "err", err)
			cancel()
		}
	}()
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			log.Error("WebSocket server error", "err", err)
			cancel()
		}
	}()

	log.Info("started", "rest_port", cfg.RESTPort, "ws_port", cfg.WSPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("REST server shutdown error", "err", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("WebSocket server shutdown error", "err", err)
	}
	if err := controller.Cleanup(); err != nil {
		log.Warn("driver cleanup error", "err", err)
	}

	log.Info("stopped")
}

func connectRedis(ctx context.Context, cfg config.Config, policy retry.Policy, log *logging.Logger) (*cache.RedisCache, error) {
	var rc *cache.RedisCache
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL, log)
		if err != nil {
			log.Warn("redis connection failed", "attempt", attempt, "max", policy.Attempts, "err", err)
			return err
		}
		rc = c
		return nil
	})
	return rc, err
}
