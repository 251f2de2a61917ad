package events

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// TopicOrderStatus is the Kafka topic status events are written to.
const TopicOrderStatus = "order-status"

// KafkaPublisher keys messages by restaurant so one restaurant's events stay
// ordered. Writes are async: Publish only enqueues and failures are logged.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicOrderStatus,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             logFailedWrites,
	}}
}

func logFailedWrites(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	log.WithError(err).WithFields(log.Fields{
		"topic":    TopicOrderStatus,
		"messages": len(messages),
	}).Warn("kafka write failed")
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt OrderStatusChanged) error {
	body, err := evt.Marshal()
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(evt.RestaurantID), 10)),
		Value: body,
		Time:  evt.At,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
