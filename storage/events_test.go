package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskticker-api/domain"
)

type fakeQueue struct {
	messages []string
	err      error
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	if f.err != nil {
		return azqueue.EnqueueMessagesResponse{}, f.err
	}
	f.messages = append(f.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func TestEnqueueTaskEventWrapsEnvelope(t *testing.T) {
	q := &fakeQueue{}
	s := &Storage{eventQueue: q}

	ev := domain.TaskEvent{ID: "e1", TaskID: "t1", Type: domain.EventTaskCreated, Timestamp: 42}
	if err := s.EnqueueTaskEvent(context.Background(), "user-1", ev); err != nil {
		t.Fatalf("enqueue event: %v", err)
	}
	if len(q.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(q.messages))
	}

	var env domain.TaskEventEnvelope
	if err := json.Unmarshal([]byte(q.messages[0]), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.UserID != "user-1" {
		t.Fatalf("unexpected user: %q", env.UserID)
	}
	if env.Event.TaskID != "t1" || env.Event.Type != domain.EventTaskCreated || env.Event.Timestamp != 42 {
		t.Fatalf("unexpected event: %+v", env.Event)
	}
}

func TestEnqueueTaskEventPropagatesQueueFailure(t *testing.T) {
	q := &fakeQueue{err: errors.New("enqueue failure")}
	s := &Storage{eventQueue: q}

	err := s.EnqueueTaskEvent(context.Background(), "user-1", domain.TaskEvent{ID: "e1"})
	if err == nil {
		t.Fatal("expected queue failure to be reported")
	}
}
