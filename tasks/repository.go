package tasks

import (
	"context"
	"errors"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskticker-api/domain"
	"taskticker-api/identity"
	"taskticker-api/storage"
)

// ErrNotAuthenticated is returned when an operation is attempted without a
// resolved identity. No store call is made in that case.
var ErrNotAuthenticated = errors.New("user not authenticated")

// ErrTaskNotFound mirrors the storage sentinel so callers only depend on
// this package. It covers both a missing document and one owned by someone
// else; the two are indistinguishable on purpose.
var ErrTaskNotFound = storage.ErrTaskNotFound

// Store is the slice of the document store the repository uses.
type Store interface {
	InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error)
	TasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (domain.Task, error)
	MergeTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) error
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// Repository translates task intents into document store operations. It
// holds no state of its own: every call is scoped by the session it is
// handed, validated before any store access, and owner-addressed so one
// user can never reach another's documents.
type Repository struct {
	store  Store
	events *EventSender
	logger *log.Logger
}

// NewRepository creates a repository over the given store. events may be nil
// to disable the mutation feed.
func NewRepository(store Store, events *EventSender, logger *log.Logger) *Repository {
	if store == nil {
		panic("tasks.NewRepository: store is nil")
	}
	if logger == nil {
		panic("tasks.NewRepository: logger is nil")
	}
	return &Repository{store: store, events: events, logger: logger}
}

// Create validates the input and writes a new task owned by the session
// identity. Returns the new task id.
func (r *Repository) Create(ctx context.Context, sess *identity.Session, in domain.TaskInput) (string, error) {
	ownerID, err := r.owner(sess)
	if err != nil {
		return "", err
	}
	if err := domain.ValidateTaskInput(in); err != nil {
		return "", err
	}
	task, err := r.store.InsertTask(ctx, ownerID, in)
	if err != nil {
		return "", err
	}
	r.emit(ownerID, task.ID, domain.EventTaskCreated, map[string]any{"title": task.Title})
	return task.ID, nil
}

// List returns every task owned by the session identity, newest created
// first. The store does not guarantee that order, so it is restored here
// after every fetch. An empty list is not an error.
func (r *Repository) List(ctx context.Context, sess *identity.Session) ([]domain.Task, error) {
	ownerID, err := r.owner(sess)
	if err != nil {
		return nil, err
	}
	tasks, err := r.store.TasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// Update applies a partial update. The stored document is fetched under the
// caller's partition first, so a missing or foreign id fails before anything
// is written. UpdatedAt is stamped whether or not any field changed.
func (r *Repository) Update(ctx context.Context, sess *identity.Session, id string, patch domain.TaskPatch) error {
	ownerID, err := r.owner(sess)
	if err != nil {
		return err
	}
	if err := domain.ValidateTaskPatch(patch); err != nil {
		return err
	}
	if _, err := r.store.GetTask(ctx, ownerID, id); err != nil {
		return err
	}
	if err := r.store.MergeTask(ctx, ownerID, id, patch); err != nil {
		return err
	}
	r.emit(ownerID, id, domain.EventTaskUpdated, patch)
	return nil
}

// ToggleCompletion is a restricted update touching only the completed flag
// and the update stamp.
func (r *Repository) ToggleCompletion(ctx context.Context, sess *identity.Session, id string, completed bool) error {
	ownerID, err := r.owner(sess)
	if err != nil {
		return err
	}
	if err := r.store.MergeTask(ctx, ownerID, id, domain.TaskPatch{Completed: &completed}); err != nil {
		return err
	}
	r.emit(ownerID, id, domain.EventTaskCompletionToggled, map[string]any{"completed": completed})
	return nil
}

// Delete removes the task permanently. A second delete of the same id fails
// with ErrTaskNotFound.
func (r *Repository) Delete(ctx context.Context, sess *identity.Session, id string) error {
	ownerID, err := r.owner(sess)
	if err != nil {
		return err
	}
	if err := r.store.DeleteTask(ctx, ownerID, id); err != nil {
		return err
	}
	r.emit(ownerID, id, domain.EventTaskDeleted, nil)
	return nil
}

func (r *Repository) owner(sess *identity.Session) (string, error) {
	if sess == nil || sess.Loading() {
		return "", ErrNotAuthenticated
	}
	id := sess.Identity()
	if id == nil || id.ID == "" {
		return "", ErrNotAuthenticated
	}
	return id.ID, nil
}

func (r *Repository) emit(ownerID, taskID, eventType string, payload any) {
	if r.events == nil {
		return
	}
	ev := domain.TaskEvent{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Type:      eventType,
		Timestamp: eventTimestamp(),
	}
	if payload != nil {
		data, err := sonic.Marshal(payload)
		if err != nil {
			r.logger.WithError(err).Warn("task event payload dropped")
		} else {
			ev.Data = data
		}
	}
	r.events.Publish(ownerID, ev)
}
