// Package bulk drives single dispatch over an ordered lead list in
// fixed-size concurrent windows, with cooperative pause, resume, and abort.
package bulk

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/transport"
)

// LeadStatus is the per-lead state inside one bulk job run.
type LeadStatus string

const (
	LeadPending LeadStatus = "pending"
	LeadCalling LeadStatus = "calling"
	LeadSuccess LeadStatus = "success"
	LeadFailed  LeadStatus = "failed"
)

// Job tracks one orchestration run. It is ephemeral: it exists only for the
// duration of the run and is never persisted.
type Job struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	CallConfigID   uuid.UUID

	mu       sync.Mutex
	cond     *sync.Cond
	targets  []transport.BulkTarget
	statuses map[uuid.UUID]LeadStatus
	paused   bool
	aborted  bool
	started  bool
	finished bool
	succeeded int
	failed    int
}

func newJob(orgID, configID uuid.UUID, targets []transport.BulkTarget) *Job {
	job := &Job{
		ID:             uuid.New(),
		OrganizationID: orgID,
		CallConfigID:   configID,
		targets:        targets,
		statuses:       make(map[uuid.UUID]LeadStatus, len(targets)),
	}
	job.cond = sync.NewCond(&job.mu)
	for _, target := range targets {
		job.statuses[target.LeadID] = LeadPending
	}
	return job
}

// Pause stops new windows from starting. In-flight dispatches finish.
func (j *Job) Pause() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paused = true
}

// Resume lets a paused job continue with its next window.
func (j *Job) Resume() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paused = false
	j.cond.Broadcast()
}

// Abort stops the job before its next window. Cooperative: dispatches
// already in flight run to completion and their outcomes are recorded.
func (j *Job) Abort() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.aborted = true
	j.cond.Broadcast()
}

// awaitResume blocks while the job is paused. Returns false when the job
// should stop scheduling windows (abort or context cancellation).
func (j *Job) awaitResume(ctx context.Context) bool {
	// Wake the wait loop if the context dies while paused.
	stop := context.AfterFunc(ctx, func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.cond.Broadcast()
	})
	defer stop()

	j.mu.Lock()
	defer j.mu.Unlock()
	for j.paused && !j.aborted && ctx.Err() == nil {
		j.cond.Wait()
	}
	return !j.aborted && ctx.Err() == nil
}

func (j *Job) markCalling(leadID uuid.UUID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.statuses[leadID] = LeadCalling
}

func (j *Job) markResult(leadID uuid.UUID, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if ok {
		j.statuses[leadID] = LeadSuccess
		j.succeeded++
	} else {
		j.statuses[leadID] = LeadFailed
		j.failed++
	}
}

func (j *Job) markStarted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started = true
}

func (j *Job) markFinished() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = true
}

// Progress returns a snapshot of the job. Completed is derived, not stored:
// it is always succeeded plus failed.
func (j *Job) Progress() transport.BulkProgressResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	total := len(j.targets)
	completed := j.succeeded + j.failed
	percent := 0
	if total > 0 {
		percent = completed * 100 / total
	}

	statuses := make(map[uuid.UUID]string, len(j.statuses))
	for leadID, status := range j.statuses {
		statuses[leadID] = string(status)
	}

	return transport.BulkProgressResponse{
		JobID:     j.ID,
		Total:     total,
		Completed: completed,
		Succeeded: j.succeeded,
		Failed:    j.failed,
		Percent:   percent,
		Paused:    j.paused,
		Aborted:   j.aborted,
		Finished:  j.finished,
		Statuses:  statuses,
	}
}
