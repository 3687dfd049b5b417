package observer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/anime-shed/clothing-inspector-go/internal/logger"
)

const kafkaWriteTimeout = 5 * time.Second

// messageWriter is the subset of *kafka.Writer the observer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaObserver publishes analysis events to a Kafka topic as JSON
type KafkaObserver struct {
	writer messageWriter
	topic  string
}

// NewKafkaObserver creates an observer writing to topic on the given brokers
func NewKafkaObserver(brokers []string, topic string) *KafkaObserver {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaObserver{writer: w, topic: topic}
}

// OnEvent serializes the event and writes it keyed by request ID
func (o *KafkaObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).Error("Failed to encode analysis event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.RequestID),
		Value: payload,
		Time:  event.Timestamp,
	}
	if err := o.writer.WriteMessages(ctx, msg); err != nil {
		logger.Component("kafka_observer").
			WithError(err).
			WithField("topic", o.topic).
			WithField("event_type", event.EventType).
			Warn("Failed to publish analysis event")
	}
}

// GetObserverName returns the observer name
func (o *KafkaObserver) GetObserverName() string {
	return "kafka_observer"
}

// Close flushes and closes the underlying writer
func (o *KafkaObserver) Close() error {
	return o.writer.Close()
}
