package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultBlockTimeout = 5 * time.Second

// RedisQueue keeps pending jobs in a list and moves each dequeued job into a
// processing list until it is acknowledged.
type RedisQueue struct {
	client        *redis.Client
	pendingKey    string
	processingKey string
	blockTimeout  time.Duration
}

func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{
		client:        client,
		pendingKey:    fmt.Sprintf("mynu:queue:%s", name),
		processingKey: fmt.Sprintf("mynu:queue:%s:processing", name),
		blockTimeout:  defaultBlockTimeout,
	}
}

// WithBlockTimeout changes how long Dequeue waits for a job.
func (q *RedisQueue) WithBlockTimeout(d time.Duration) *RedisQueue {
	q.blockTimeout = d
	return q
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.pendingKey, raw).Err(); err != nil {
		logger.Error("Failed to enqueue job", err, map[string]interface{}{
			"job_id":   job.ID,
			"job_type": job.Type,
		})
		return err
	}

	logger.Debug("Job enqueued", map[string]interface{}{
		"job_id":   job.ID,
		"job_type": job.Type,
	})
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	raw, err := q.client.BLMove(ctx, q.pendingKey, q.processingKey, "RIGHT", "LEFT", q.blockTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		logger.Error("Dropping undecodable job", err)
		q.client.LRem(ctx, q.processingKey, 1, raw)
		return nil, nil
	}

	return &Delivery{
		Job: job,
		Ack: func(ctx context.Context) error {
			return q.client.LRem(ctx, q.processingKey, 1, raw).Err()
		},
	}, nil
}

// Recover moves jobs left in the processing list by a crashed worker back to pending.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processingKey, q.pendingKey, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}
		moved++
	}

	if moved > 0 {
		logger.Warn("Requeued unacknowledged jobs", map[string]interface{}{
			"count": moved,
			"queue": q.pendingKey,
		})
	}
	return moved, nil
}

// Len returns the number of pending jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.pendingKey).Result()
}
