package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"dialhub_backend/internal/calls/eventstore"
	"dialhub_backend/internal/calls/ingest"
	"dialhub_backend/internal/calls/qualify"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/events"
	"dialhub_backend/internal/leads"
	"dialhub_backend/internal/scheduler"
	"dialhub_backend/internal/usage"
	"dialhub_backend/platform/config"
	"dialhub_backend/platform/db"
	"dialhub_backend/platform/logger"
)

// The worker consumes completion tasks enqueued by the webhook handler and
// runs the full ingestion pipeline outside the request path.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	redisOpt, err := goredis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		panic("failed to parse redis url: " + err.Error())
	}
	redisClient := goredis.NewClient(redisOpt)
	defer redisClient.Close()

	eventBus := events.NewInMemoryBus(log)

	var qualifier ingest.Qualifier
	if cfg.IsQualifierEnabled() {
		gemini, err := qualify.NewGemini(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize qualifier", "error", err)
			panic("failed to initialize qualifier: " + err.Error())
		}
		qualifier = gemini
		log.Info("qualifier enabled", "model", cfg.GetGeminiModel())
	} else {
		log.Warn("GEMINI_API_KEY not configured; call qualification disabled")
	}

	pipeline := ingest.New(
		repository.New(pool),
		leads.New(pool),
		usage.New(pool),
		eventstore.New(redisClient),
		qualifier,
		eventBus,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, pipeline, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < attempts {
			delay := baseDelay * time.Duration(attempt)
			log.Warn("retrying after failure", "operation", name, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
