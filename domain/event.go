package domain

import "github.com/bytedance/sonic"

// Task event types published on the mutation feed.
const (
	EventTaskCreated           = "task-created"
	EventTaskUpdated           = "task-updated"
	EventTaskCompletionToggled = "task-completion-toggled"
	EventTaskDeleted           = "task-deleted"
)

// TaskEvent records a single mutation applied to a task.
type TaskEvent struct {
	ID        string                 `json:"id"`
	TaskID    string                 `json:"taskId"`
	Type      string                 `json:"type"`
	Data      sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// TaskEventEnvelope wraps an event with the user who performed it.
type TaskEventEnvelope struct {
	UserID string    `json:"userId"`
	Event  TaskEvent `json:"event"`
}
