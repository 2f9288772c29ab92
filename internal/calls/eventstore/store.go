// Package eventstore keeps recently processed completion outcomes in Redis,
// keyed by external call identifier. The reconciliation poller queries it to
// bridge sessions that still consider a call open; reads are replayable and
// side-effect free, so the poller applies its own idempotency check.
package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"dialhub_backend/internal/calls/domain"
)

const (
	keyPrefix       = "dialhub:completion:"
	notifyPrefix    = "dialhub:notified:"
	defaultEventTTL = 24 * time.Hour
)

// Outcome is the terminal result stored per external call identifier.
type Outcome struct {
	ExternalCallID  string        `json:"externalCallId"`
	OrganizationID  string        `json:"organizationId"`
	Status          domain.Status `json:"status"`
	DurationSeconds int           `json:"durationSeconds"`
	InterestLevel   int           `json:"interestLevel"`
	CompletionRate  int           `json:"completionRate"`
	Summary         string        `json:"summary"`
	CompletedAt     time.Time     `json:"completedAt"`
}

// Store is the Redis-backed completion-event store.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a new completion-event store.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client, ttl: defaultEventTTL}
}

// Put records a processed completion outcome.
func (s *Store) Put(ctx context.Context, outcome Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+outcome.ExternalCallID, data, s.ttl).Err()
}

// FetchPending returns the outcomes available for the given external call
// identifiers. Identifiers with no stored outcome are simply absent from the
// result.
func (s *Store) FetchPending(ctx context.Context, externalCallIDs []string) ([]Outcome, error) {
	if len(externalCallIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(externalCallIDs))
	for i, id := range externalCallIDs {
		keys[i] = keyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok || raw == "" {
			continue
		}
		var outcome Outcome
		if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// MarkNotified records that a completion was announced for the given
// external call identifier. Returns false when it was already marked, which
// callers use to suppress duplicate notifications across sessions. Best
// effort only; the in-memory dedup set in the poller remains the first line.
func (s *Store) MarkNotified(ctx context.Context, externalCallID string) (bool, error) {
	return s.client.SetNX(ctx, notifyPrefix+externalCallID, "1", s.ttl).Result()
}
