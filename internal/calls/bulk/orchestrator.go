package bulk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/platform/apperr"
	"dialhub_backend/platform/logger"
)

// Dispatcher places a single call. Satisfied by dispatch.Service.
type Dispatcher interface {
	Dispatch(ctx context.Context, orgID uuid.UUID, req transport.DispatchCallRequest) (repository.Call, error)
}

// Orchestrator runs bulk dispatch jobs. Windowing is the concurrency cap:
// window N+1 cannot start until every dispatch in window N has settled, so
// in-flight dispatches never exceed the configured size.
type Orchestrator struct {
	dispatcher  Dispatcher
	concurrency int
	cooldown    time.Duration
	log         *logger.Logger

	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// New creates a bulk orchestrator.
func New(dispatcher Dispatcher, concurrency int, cooldown time.Duration, log *logger.Logger) *Orchestrator {
	if concurrency < 1 {
		concurrency = 5
	}
	return &Orchestrator{
		dispatcher:  dispatcher,
		concurrency: concurrency,
		cooldown:    cooldown,
		log:         log,
		jobs:        make(map[uuid.UUID]*Job),
	}
}

// Start registers a job for the given targets and runs it in the background.
// The run outlives the originating HTTP request.
func (o *Orchestrator) Start(orgID uuid.UUID, req transport.BulkDispatchRequest) (*Job, error) {
	if len(req.Targets) == 0 {
		return nil, apperr.Validation("no targets provided")
	}

	seen := make(map[uuid.UUID]bool, len(req.Targets))
	for _, target := range req.Targets {
		if seen[target.LeadID] {
			return nil, apperr.Validation("duplicate lead in bulk request")
		}
		seen[target.LeadID] = true
	}

	job := newJob(orgID, req.CallConfigID, req.Targets)

	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()

	go o.run(context.Background(), job)

	return job, nil
}

// Get returns a registered job.
func (o *Orchestrator) Get(jobID uuid.UUID) (*Job, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.jobs[jobID]
	return job, ok
}

// run drives the job window by window. Leads are dispatched in input order
// at the window level; completion order within a window is unspecified.
func (o *Orchestrator) run(ctx context.Context, job *Job) {
	job.markStarted()
	defer job.markFinished()

	for start := 0; start < len(job.targets); start += o.concurrency {
		if !job.awaitResume(ctx) {
			o.log.Info("bulk: job stopped before next window", "jobId", job.ID)
			return
		}

		end := start + o.concurrency
		if end > len(job.targets) {
			end = len(job.targets)
		}
		o.runWindow(ctx, job, job.targets[start:end])

		if end < len(job.targets) && o.cooldown > 0 {
			select {
			case <-time.After(o.cooldown):
			case <-ctx.Done():
				return
			}
		}
	}
}

// runWindow dispatches one window concurrently and waits for every dispatch
// to settle. One lead's failure never aborts its siblings.
func (o *Orchestrator) runWindow(ctx context.Context, job *Job, window []transport.BulkTarget) {
	var wg sync.WaitGroup
	for _, target := range window {
		wg.Add(1)
		go func(target transport.BulkTarget) {
			defer wg.Done()

			job.markCalling(target.LeadID)
			leadID := target.LeadID
			_, err := o.dispatcher.Dispatch(ctx, job.OrganizationID, transport.DispatchCallRequest{
				PhoneNumber:  target.PhoneNumber,
				ContactName:  target.ContactName,
				LeadID:       &leadID,
				CallConfigID: job.CallConfigID,
				Context:      target.Context,
			})
			if err != nil {
				o.log.Warn("bulk: dispatch failed", "jobId", job.ID, "leadId", target.LeadID, "error", err)
			}
			job.markResult(target.LeadID, err == nil)
		}(target)
	}
	wg.Wait()
}
