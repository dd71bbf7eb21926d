// Package realtime streams loan events to Kafka for live dashboards and
// client push.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"cooploan-backend/internal/domain/event"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher is an event.Subscriber. Messages are keyed by loan id so one
// loan's events stay ordered within a partition.
type Publisher struct {
	w writer
}

func NewPublisher(w writer) *Publisher { return &Publisher{w: w} }

func (p *Publisher) Name() string { return "realtime" }

func (p *Publisher) Handle(ctx context.Context, e event.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.LoanID),
		Value: b,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Name)},
			{Key: "borrower_id", Value: []byte(e.BorrowerID)},
		},
	})
}
