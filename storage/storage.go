package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/google/uuid"

	"taskticker-api/domain"
)

// ErrTaskNotFound is returned when the addressed document does not exist
// under the owner's partition. A document owned by someone else looks
// exactly the same.
var ErrTaskNotFound = errors.New("task not found")

// Storage provides access to the hosted task store. Tasks live in a single
// table with PartitionKey = owner id and RowKey = task id, so every read and
// write is scoped to one owner by addressing alone.
type Storage struct {
	taskTable  *aztables.Client
	eventQueue queueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, eventsQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	tt := svc.NewClient(tasksTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 1,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: tt, eventQueue: eq}, nil
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	DueDate     string `json:"DueDate"`
	Notes       string `json:"Notes"`
	Completed   bool   `json:"Completed"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

// InsertTask writes a new task document under the owner's partition and
// returns it with the storage assigned id and timestamps. Both stamps come
// from the service clock so client clocks never leak into stored records.
func (s *Storage) InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error) {
	stamp := stampTime().Format(time.RFC3339Nano)
	ent := taskEntity{
		Entity:      aztables.Entity{PartitionKey: ownerID, RowKey: uuid.NewString()},
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Notes:       in.Notes,
		Completed:   false,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, data, nil); err != nil {
		return domain.Task{}, err
	}
	return taskFromEntity(ent), nil
}

// TasksByOwner retrieves every task owned by the provided user. The store
// returns entities in row key order; callers that need creation order must
// re-sort.
func (s *Storage) TasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + ownerID + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, taskFromEntity(ent))
		}
	}
	return tasks, nil
}

// GetTask fetches the single task addressed by owner and id.
func (s *Storage) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, ownerID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	return taskFromEntity(ent), nil
}

// MergeTask applies the set fields of patch to the addressed document and
// refreshes the update stamp, whether or not any field changed.
func (s *Storage) MergeTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) error {
	props := mergeProperties(ownerID, id, patch, stampTime().Format(time.RFC3339Nano))
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	opts := &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge}
	if _, err := s.taskTable.UpdateEntity(ctx, data, opts); err != nil {
		if isNotFound(err) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

// DeleteTask removes the document permanently. Deleting an id that is
// already gone is a failure, not a silent success.
func (s *Storage) DeleteTask(ctx context.Context, ownerID, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, ownerID, id, nil); err != nil {
		if isNotFound(err) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func mergeProperties(ownerID, id string, patch domain.TaskPatch, stamp string) map[string]any {
	props := map[string]any{
		"PartitionKey": ownerID,
		"RowKey":       id,
		"UpdatedAt":    stamp,
	}
	if patch.Title != nil {
		props["Title"] = *patch.Title
	}
	if patch.Description != nil {
		props["Description"] = *patch.Description
	}
	if patch.DueDate != nil {
		props["DueDate"] = *patch.DueDate
	}
	if patch.Notes != nil {
		props["Notes"] = *patch.Notes
	}
	if patch.Completed != nil {
		props["Completed"] = *patch.Completed
	}
	return props
}

func taskFromEntity(ent taskEntity) domain.Task {
	created, _ := time.Parse(time.RFC3339Nano, ent.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, ent.UpdatedAt)
	return domain.Task{
		ID:          ent.RowKey,
		OwnerID:     ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		DueDate:     ent.DueDate,
		Notes:       ent.Notes,
		Completed:   ent.Completed,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

var lastStampNanos int64

// stampTime returns a strictly increasing UTC time so back to back mutations
// of the same document always advance UpdatedAt.
func stampTime() time.Time {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastStampNanos)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastStampNanos, last, now) {
			return time.Unix(0, now).UTC()
		}
	}
}
