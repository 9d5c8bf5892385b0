package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// VisitMessage is the wire format of a visit on the visits topic.
type VisitMessage struct {
	StoreID   uint      `json:"store_id"`
	DishID    *uint     `json:"dish_id,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
}

// VisitPublisher records visits by publishing them to Kafka; VisitConsumer
// persists them.
type VisitPublisher struct {
	writer MessageWriter
}

func NewVisitPublisher(writer MessageWriter) *VisitPublisher {
	return &VisitPublisher{writer: writer}
}

// NewKafkaWriter builds a writer for the visits topic, keyed by store.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func (p *VisitPublisher) Record(ctx context.Context, visit model.Visit) error {
	payload, err := json.Marshal(VisitMessage{
		StoreID:   visit.StoreID,
		DishID:    visit.DishID,
		VisitedAt: visit.VisitedAt,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(visit.StoreID), 10)),
		Value: payload,
	})
}

func (p *VisitPublisher) Close() error {
	return p.writer.Close()
}
