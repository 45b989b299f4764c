package repository

import (
	"context"
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgkafka "FinSignal/pkg/kafka"
)

// KafkaPublisher publishes signal lifecycle events. Created and closed
// events go to separate topics keyed by unit so each unit stays ordered.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	createdTopic string
	closedTopic  string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, createdTopic, closedTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, createdTopic: createdTopic, closedTopic: closedTopic}
}

func (p *KafkaPublisher) PublishSignalEvent(ctx context.Context, ev models.SignalEvent) error {
	topic := p.createdTopic
	if ev.Type == models.EventSignalClosed {
		topic = p.closedTopic
	}
	key := []byte(ev.Symbol + ":" + ev.Interval)
	if err := p.producer.Publish(ctx, topic, key, ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops events; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishSignalEvent(context.Context, models.SignalEvent) error { return nil }
func (NopPublisher) Close() error                                                 { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaPublisher)(nil)
	_ domrepo.EventPublisher = NopPublisher{}
)
