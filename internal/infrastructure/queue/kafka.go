package queue

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns an async producer for topic. Async keeps request latency
// independent of broker round trips; delivery failures surface through
// onError.
func NewWriter(brokers []string, topic string, onError func(error)) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
		Completion: func(_ []kafka.Message, err error) {
			if err != nil && onError != nil {
				onError(err)
			}
		},
	}
}
