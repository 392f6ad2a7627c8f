package domain

import "time"

// Task represents a single tracked item as stored in the task collection.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"dueDate"`
	Completed   bool      `json:"completed"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskInput carries the user supplied fields of a new task. The owner and
// both timestamps are assigned by the storage layer, never by the caller.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Notes       string `json:"notes"`
}

// TaskPatch is a partial update over the mutable task fields. A nil field
// leaves the stored value unchanged; field names outside this set are
// rejected when the patch is decoded.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Notes == nil && p.Completed == nil
}
