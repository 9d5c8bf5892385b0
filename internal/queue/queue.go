package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Dequeue once the queue has been stopped.
var ErrClosed = errors.New("queue closed")

// Job is a unit of background work.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJob encodes payload into a job of the given type.
func NewJob(jobType string, payload interface{}) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}, nil
}

// Decode unmarshals the job payload into v.
func (j Job) Decode(v interface{}) error {
	return json.Unmarshal(j.Payload, v)
}

// Delivery is a dequeued job. Ack removes it for good.
type Delivery struct {
	Job Job
	Ack func(ctx context.Context) error
}

// Queue is an at-least-once job queue.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available. It returns (nil, nil) when it
	// gave up waiting and the caller should poll again.
	Dequeue(ctx context.Context) (*Delivery, error)
}
