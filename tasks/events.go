package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"taskticker-api/domain"
)

const (
	defaultEventBuffer  = 256
	defaultEventWorkers = 4
	defaultEventTimeout = 10 * time.Second
)

// Publisher delivers a single task event to the feed queue.
type Publisher interface {
	EnqueueTaskEvent(ctx context.Context, userID string, ev domain.TaskEvent) error
}

type feedItem struct {
	userID string
	ev     domain.TaskEvent
}

// EventSender drains task mutation events to the feed queue without ever
// blocking or failing the mutating request. The feed is best effort: a full
// buffer drops the event with a warning.
type EventSender struct {
	publisher Publisher
	logger    *log.Logger
	jobs      chan feedItem
	timeout   time.Duration
	workerWG  sync.WaitGroup
	closeOnce sync.Once
}

// NewEventSender starts the worker pool. Zero or negative buffer, workers or
// timeout fall back to defaults.
func NewEventSender(publisher Publisher, logger *log.Logger, buffer, workers int, timeout time.Duration) *EventSender {
	if publisher == nil {
		panic("tasks.NewEventSender: publisher is nil")
	}
	if logger == nil {
		panic("tasks.NewEventSender: logger is nil")
	}
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	if workers <= 0 {
		workers = defaultEventWorkers
	}
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}

	s := &EventSender{
		publisher: publisher,
		logger:    logger,
		jobs:      make(chan feedItem, buffer),
		timeout:   timeout,
	}
	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// Publish hands the event to a worker, dropping it when the buffer is full.
func (s *EventSender) Publish(userID string, ev domain.TaskEvent) {
	select {
	case s.jobs <- feedItem{userID: userID, ev: ev}:
	default:
		s.logger.WithFields(log.Fields{
			"user_id": userID,
			"type":    ev.Type,
		}).Warn("event buffer saturated; dropping task event")
	}
}

// Close stops accepting events and waits for the workers to drain the
// buffer.
func (s *EventSender) Close() {
	s.closeOnce.Do(func() {
		close(s.jobs)
	})
	s.workerWG.Wait()
}

func (s *EventSender) worker() {
	defer s.workerWG.Done()
	for item := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.publisher.EnqueueTaskEvent(ctx, item.userID, item.ev)
		cancel()
		if err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"user_id": item.userID,
				"type":    item.ev.Type,
			}).Warn("task event dropped")
		}
	}
}

var lastEventNanos int64

// eventTimestamp returns strictly increasing nanosecond timestamps so feed
// consumers can order events from one instance.
func eventTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastEventNanos)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastEventNanos, last, now) {
			return now
		}
	}
}
