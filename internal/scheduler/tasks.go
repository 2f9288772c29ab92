package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"dialhub_backend/internal/calls/transport"
)

const TaskCallCompletion = "calls.completion"

type CallCompletionPayload struct {
	OrganizationID string                    `json:"organizationId"`
	Event          transport.CompletionEvent `json:"event"`
}

func NewCallCompletionTask(payload CallCompletionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallCompletion, data), nil
}

func ParseCallCompletionPayload(task *asynq.Task) (CallCompletionPayload, error) {
	var payload CallCompletionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CallCompletionPayload{}, err
	}
	return payload, nil
}
