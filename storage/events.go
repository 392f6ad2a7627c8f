package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskticker-api/domain"
)

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// EnqueueTaskEvent publishes a single mutation event to the task feed queue.
func (s *Storage) EnqueueTaskEvent(ctx context.Context, userID string, ev domain.TaskEvent) error {
	env := domain.TaskEventEnvelope{UserID: userID, Event: ev}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = s.eventQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
