package bulk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/platform/logger"
)

type fakeDispatcher struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       map[uuid.UUID]int
	failLeads   map[uuid.UUID]bool

	// When set, Dispatch announces each arrival and blocks until released.
	arrivals chan uuid.UUID
	release  chan struct{}
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{calls: make(map[uuid.UUID]int)}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, orgID uuid.UUID, req transport.DispatchCallRequest) (repository.Call, error) {
	leadID := *req.LeadID

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls[leadID]++
	fail := f.failLeads[leadID]
	f.mu.Unlock()

	if f.arrivals != nil {
		f.arrivals <- leadID
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if fail {
		return repository.Call{}, errors.New("provider rejected call")
	}
	return repository.Call{ID: uuid.New()}, nil
}

func makeTargets(n int) []transport.BulkTarget {
	targets := make([]transport.BulkTarget, 0, n)
	for i := 0; i < n; i++ {
		targets = append(targets, transport.BulkTarget{
			LeadID:      uuid.New(),
			PhoneNumber: "+14155552671",
			ContactName: "Lead",
		})
	}
	return targets
}

func waitFinished(t *testing.T, job *Job) transport.BulkProgressResponse {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		progress := job.Progress()
		if progress.Finished {
			return progress
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return transport.BulkProgressResponse{}
}

func collectArrivals(t *testing.T, arrivals chan uuid.UUID, n int) map[uuid.UUID]bool {
	t.Helper()
	got := make(map[uuid.UUID]bool, n)
	for i := 0; i < n; i++ {
		select {
		case leadID := <-arrivals:
			got[leadID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for arrival %d of %d", i+1, n)
		}
	}
	return got
}

func TestBulkDispatchAccountsForEveryLeadExactlyOnce(t *testing.T) {
	dispatcher := newFakeDispatcher()
	targets := makeTargets(12)
	dispatcher.failLeads = map[uuid.UUID]bool{
		targets[3].LeadID: true,
		targets[7].LeadID: true,
	}

	o := New(dispatcher, 5, 0, logger.New("test"))
	job, err := o.Start(uuid.New(), transport.BulkDispatchRequest{
		CallConfigID: uuid.New(),
		Targets:      targets,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	progress := waitFinished(t, job)

	if progress.Total != 12 {
		t.Fatalf("total = %d, want 12", progress.Total)
	}
	if progress.Succeeded+progress.Failed != progress.Total {
		t.Fatalf("succeeded(%d)+failed(%d) != total(%d)", progress.Succeeded, progress.Failed, progress.Total)
	}
	if progress.Failed != 2 {
		t.Fatalf("failed = %d, want 2", progress.Failed)
	}
	if progress.Percent != 100 {
		t.Fatalf("percent = %d, want 100", progress.Percent)
	}

	for _, target := range targets {
		if dispatcher.calls[target.LeadID] != 1 {
			t.Fatalf("lead %s dispatched %d times, want exactly once", target.LeadID, dispatcher.calls[target.LeadID])
		}
	}
	if dispatcher.maxInFlight > 5 {
		t.Fatalf("max in-flight dispatches = %d, exceeded cap of 5", dispatcher.maxInFlight)
	}
}

func TestBulkDispatchRunsInWindowsOfConfiguredSize(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.arrivals = make(chan uuid.UUID, 12)
	dispatcher.release = make(chan struct{})

	targets := makeTargets(12)
	o := New(dispatcher, 5, 0, logger.New("test"))
	job, err := o.Start(uuid.New(), transport.BulkDispatchRequest{
		CallConfigID: uuid.New(),
		Targets:      targets,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// First window: exactly the first five leads, in any completion order.
	first := collectArrivals(t, dispatcher.arrivals, 5)
	for i := 0; i < 5; i++ {
		if !first[targets[i].LeadID] {
			t.Fatalf("first window missing lead %d", i)
		}
	}
	select {
	case leadID := <-dispatcher.arrivals:
		t.Fatalf("lead %s dispatched before window one settled", leadID)
	case <-time.After(20 * time.Millisecond):
	}
	for i := 0; i < 5; i++ {
		dispatcher.release <- struct{}{}
	}

	second := collectArrivals(t, dispatcher.arrivals, 5)
	for i := 5; i < 10; i++ {
		if !second[targets[i].LeadID] {
			t.Fatalf("second window missing lead %d", i)
		}
	}
	for i := 0; i < 5; i++ {
		dispatcher.release <- struct{}{}
	}

	third := collectArrivals(t, dispatcher.arrivals, 2)
	for i := 10; i < 12; i++ {
		if !third[targets[i].LeadID] {
			t.Fatalf("final window missing lead %d", i)
		}
	}
	dispatcher.release <- struct{}{}
	dispatcher.release <- struct{}{}

	waitFinished(t, job)
}

func TestPauseHaltsBeforeNextWindowAndResumeContinues(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.arrivals = make(chan uuid.UUID, 4)
	dispatcher.release = make(chan struct{}, 4)

	targets := makeTargets(4)
	o := New(dispatcher, 2, 0, logger.New("test"))
	job, err := o.Start(uuid.New(), transport.BulkDispatchRequest{
		CallConfigID: uuid.New(),
		Targets:      targets,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	collectArrivals(t, dispatcher.arrivals, 2)
	job.Pause()

	// Let the in-flight window finish; the job must not open the next one.
	dispatcher.release <- struct{}{}
	dispatcher.release <- struct{}{}

	select {
	case leadID := <-dispatcher.arrivals:
		t.Fatalf("lead %s dispatched while paused", leadID)
	case <-time.After(50 * time.Millisecond):
	}

	progress := job.Progress()
	if progress.Completed != 2 {
		t.Fatalf("completed = %d while paused, want 2", progress.Completed)
	}
	if !progress.Paused {
		t.Fatal("progress should report paused")
	}

	job.Resume()
	collectArrivals(t, dispatcher.arrivals, 2)
	dispatcher.release <- struct{}{}
	dispatcher.release <- struct{}{}

	progress = waitFinished(t, job)
	if progress.Completed != 4 {
		t.Fatalf("completed = %d after resume, want 4", progress.Completed)
	}
}

func TestAbortStopsBeforeNextWindow(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.arrivals = make(chan uuid.UUID, 12)
	dispatcher.release = make(chan struct{}, 12)

	targets := makeTargets(12)
	o := New(dispatcher, 5, 200*time.Millisecond, logger.New("test"))
	job, err := o.Start(uuid.New(), transport.BulkDispatchRequest{
		CallConfigID: uuid.New(),
		Targets:      targets,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	collectArrivals(t, dispatcher.arrivals, 5)
	for i := 0; i < 5; i++ {
		dispatcher.release <- struct{}{}
	}

	// Abort lands during the cooldown between window one and window two.
	job.Abort()

	progress := waitFinished(t, job)
	if progress.Completed != 5 {
		t.Fatalf("completed = %d after abort, want 5", progress.Completed)
	}
	if !progress.Aborted {
		t.Fatal("progress should report aborted")
	}
	pending := 0
	for _, status := range progress.Statuses {
		if status == string(LeadPending) {
			pending++
		}
	}
	if pending != 7 {
		t.Fatalf("pending leads = %d after abort, want 7", pending)
	}
}

func TestStartRejectsEmptyAndDuplicateTargets(t *testing.T) {
	o := New(newFakeDispatcher(), 5, 0, logger.New("test"))

	if _, err := o.Start(uuid.New(), transport.BulkDispatchRequest{CallConfigID: uuid.New()}); err == nil {
		t.Fatal("expected error for empty target list")
	}

	leadID := uuid.New()
	_, err := o.Start(uuid.New(), transport.BulkDispatchRequest{
		CallConfigID: uuid.New(),
		Targets: []transport.BulkTarget{
			{LeadID: leadID, PhoneNumber: "+14155552671", ContactName: "A"},
			{LeadID: leadID, PhoneNumber: "+14155552671", ContactName: "B"},
		},
	})
	if err == nil {
		t.Fatal("expected error for duplicate lead")
	}
}
