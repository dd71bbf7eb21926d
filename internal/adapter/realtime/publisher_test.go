package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/event"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestPublisher_KeysByLoan(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	e := event.Event{
		Name: event.LoanApproved, LoanID: "L1", BorrowerID: "B1",
		OldState: "pending", NewState: "active",
		Amount: decimal.RequireFromString("500000.00"), OccurredAt: at,
	}
	if err := p.Handle(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "L1" || !m.Time.Equal(at) {
		t.Fatalf("key=%s time=%v", m.Key, m.Time)
	}
	if len(m.Headers) != 2 || string(m.Headers[0].Value) != string(event.LoanApproved) {
		t.Fatalf("headers = %+v", m.Headers)
	}
	var got event.Event
	if err := json.Unmarshal(m.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.NewState != "active" || !got.Amount.Equal(e.Amount) {
		t.Fatalf("payload = %+v", got)
	}
}

func TestPublisher_ReturnsWriterError(t *testing.T) {
	boom := errors.New("no brokers")
	p := NewPublisher(&fakeWriter{err: boom})
	if err := p.Handle(context.Background(), event.Event{Name: event.LoanApplied}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
