package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/atu_queue/kiosk/internal/models"
)

const TypeTicketIssued = "ticket.issued"

type Publisher interface {
	PublishIssued(ctx context.Context, t models.TicketRecord) error
	Close() error
}

type TicketEvent struct {
	Type      string    `json:"type"`
	Number    string    `json:"number"`
	Prefix    string    `json:"prefix"`
	Desk      *int      `json:"desk"`
	Service   string    `json:"service"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func IssuedEvent(t models.TicketRecord) TicketEvent {
	return TicketEvent{
		Type:      TypeTicketIssued,
		Number:    t.Number,
		Prefix:    t.Prefix,
		Desk:      t.Desk,
		Service:   t.Service,
		Category:  t.Category,
		CreatedAt: t.CreatedAt,
	}
}

// Message builds the kafka message for an issued ticket, keyed by number.
func Message(t models.TicketRecord) (kafka.Message, error) {
	v, err := json.Marshal(IssuedEvent(t))
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(t.Number),
		Value: v,
		Time:  time.Now(),
	}, nil
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaPublisher) PublishIssued(ctx context.Context, t models.TicketRecord) error {
	msg, err := Message(t)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) PublishIssued(context.Context, models.TicketRecord) error { return nil }

func (NopPublisher) Close() error { return nil }
