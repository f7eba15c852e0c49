// Package main contains the entrypoint for the FortuneCast recommendation service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mirukang/fortunecast/internal/config"
	"github.com/mirukang/fortunecast/internal/database"
	"github.com/mirukang/fortunecast/internal/llm"
	"github.com/mirukang/fortunecast/internal/logger"
	"github.com/mirukang/fortunecast/internal/maintenance"
	"github.com/mirukang/fortunecast/internal/recommend"
	"github.com/mirukang/fortunecast/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// store, LLM client, maintenance scheduler, HTTP server), handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	var store database.Store
	switch cfg.Database.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Database.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "addr", cfg.Database.RedisAddr, "error", err)
			return 1
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis connection", "error", err)
			}
		}()
		store = database.NewRedisStore(redisClient, log)
		log.Info("Redis history store connected", "addr", cfg.Database.RedisAddr)
	default:
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
			return 1
		}
		defer database.CloseDB(db)
		store = database.NewStore(db, log)
	}

	llmClient, err := llm.NewClient(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize LLM client", "provider", cfg.AI.Provider, "error", err)
		return 1
	}

	svc := recommend.NewService(store, llmClient, log, cfg.AI.HistoryLimit)
	srv := server.New(cfg.Server, svc, store, log, cfg.Log.Level == "debug")

	if cfg.Maintenance.Enabled && cfg.Database.Backend == "sqlite" {
		sched, err := maintenance.NewScheduler(log, cfg.Maintenance.Interval, store)
		if err != nil {
			log.Error("Failed to create maintenance scheduler", "error", err)
			return 1
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Error("Failed to stop maintenance scheduler", "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	log.Info("FortuneCast started")
	runErr := g.Wait()
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Service stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Service stopped gracefully.")
	return 0
}
