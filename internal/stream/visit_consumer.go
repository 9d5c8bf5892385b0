package stream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader used by the consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// VisitStore persists a batch of visits.
type VisitStore interface {
	CreateBatch(visits []model.Visit) error
}

// VisitConsumer reads the visits topic and writes visits in batches. Offsets are
// committed only after the batch is stored.
type VisitConsumer struct {
	reader        MessageReader
	store         VisitStore
	batchSize     int
	flushInterval time.Duration
}

func NewVisitConsumer(reader MessageReader, store VisitStore) *VisitConsumer {
	return &VisitConsumer{
		reader:        reader,
		store:         store,
		batchSize:     100,
		flushInterval: 2 * time.Second,
	}
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
}

// Start consumes until ctx is cancelled, flushing whatever is buffered on the way out.
func (c *VisitConsumer) Start(ctx context.Context) {
	logger.Info("Visit consumer started")
	defer logger.Info("Visit consumer stopped")

	var (
		visits []model.Visit
		msgs   []kafka.Message
	)
	flush := func() {
		if len(msgs) == 0 {
			return
		}
		if err := c.store.CreateBatch(visits); err != nil {
			logger.Error("Failed to store visit batch", err, map[string]interface{}{
				"count": len(visits),
			})
			return
		}
		if err := c.reader.CommitMessages(context.WithoutCancel(ctx), msgs...); err != nil {
			logger.Error("Failed to commit visit offsets", err)
		}
		logger.Debug("Visit batch stored", map[string]interface{}{
			"count": len(visits),
		})
		visits, msgs = visits[:0], msgs[:0]
	}

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, c.flushInterval)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				flush()
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				flush()
				continue
			}
			logger.Error("Failed to read visit message", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}

		msgs = append(msgs, msg)
		var vm VisitMessage
		if err := json.Unmarshal(msg.Value, &vm); err != nil || vm.StoreID == 0 {
			logger.Warn("Skipping malformed visit message", map[string]interface{}{
				"offset": msg.Offset,
			})
		} else {
			visits = append(visits, model.Visit{StoreID: vm.StoreID, DishID: vm.DishID, VisitedAt: vm.VisitedAt})
		}

		if len(msgs) >= c.batchSize {
			flush()
		}
	}
}
