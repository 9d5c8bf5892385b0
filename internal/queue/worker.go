package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mynu/mynu-backend/pkg/logger"
)

// Handler processes one job.
type Handler func(ctx context.Context, job Job) error

// Worker pulls jobs from a queue and dispatches them by type. Failed jobs are
// logged and dropped.
type Worker struct {
	queue    Queue
	mu       sync.RWMutex
	handlers map[string]Handler
	backoff  time.Duration
}

func NewWorker(q Queue) *Worker {
	return &Worker{
		queue:    q,
		handlers: make(map[string]Handler),
		backoff:  time.Second,
	}
}

func (w *Worker) Register(jobType string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = h
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	logger.Info("Job worker started")
	defer logger.Info("Job worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		delivery, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			logger.Error("Failed to dequeue job", err)
			select {
			case <-time.After(w.backoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		if delivery == nil {
			continue
		}

		w.process(ctx, delivery)
	}
}

func (w *Worker) process(ctx context.Context, d *Delivery) {
	w.mu.RLock()
	handler, ok := w.handlers[d.Job.Type]
	w.mu.RUnlock()

	fields := map[string]interface{}{
		"job_id":   d.Job.ID,
		"job_type": d.Job.Type,
	}

	if !ok {
		logger.Warn("No handler registered for job", fields)
	} else if err := handler(ctx, d.Job); err != nil {
		logger.Error("Job failed", err, fields)
	} else {
		logger.Debug("Job processed", fields)
	}

	// acknowledged even on failure: there is no retry policy
	if err := d.Ack(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Failed to acknowledge job", err, fields)
	}
}
