package scheduler

import (
	"context"
	"fmt"

	"dialhub_backend/internal/calls/ingest"
	"dialhub_backend/platform/config"
	"dialhub_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	pipeline *ingest.Pipeline
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pipeline *ingest.Pipeline, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		pipeline: pipeline,
		log:      log,
	}

	mux.HandleFunc(TaskCallCompletion, w.handleCallCompletion)

	return w, nil
}

// handleCallCompletion runs the ingestion pipeline for one webhook delivery.
// A returned error means the outcome update hit infrastructure and asynq
// should retry; application-level rejects are absorbed inside the pipeline.
func (w *Worker) handleCallCompletion(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCallCompletionPayload(task)
	if err != nil {
		return err
	}

	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}

	return w.pipeline.Process(ctx, orgID, payload.Event)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
