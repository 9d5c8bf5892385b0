package queue

import (
	"context"
	"time"
)

// MemoryQueue is an in-process queue used when Redis is disabled. Jobs do not
// survive a restart.
type MemoryQueue struct {
	jobs chan Job
	wait time.Duration
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{jobs: make(chan Job, size), wait: defaultBlockTimeout}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	timer := time.NewTimer(q.wait)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		return &Delivery{Job: job, Ack: func(context.Context) error { return nil }}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
