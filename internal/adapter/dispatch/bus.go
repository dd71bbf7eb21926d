// Package dispatch hands committed domain events to every subscriber.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"cooploan-backend/internal/domain/event"
)

// Bus delivers synchronously, in subscription order. A failing subscriber is
// logged and does not stop the others.
type Bus struct {
	subs []event.Subscriber
	log  *zap.Logger
}

func NewBus(log *zap.Logger, subs ...event.Subscriber) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{subs: subs, log: log.Named("dispatch")}
}

func (b *Bus) Dispatch(ctx context.Context, evs []event.Event) {
	// the request may be done by now; delivery should not be cut short by it
	ctx = context.WithoutCancel(ctx)
	for _, e := range evs {
		for _, s := range b.subs {
			if err := s.Handle(ctx, e); err != nil {
				b.log.Warn("subscriber failed",
					zap.String("subscriber", s.Name()),
					zap.String("event", string(e.Name)),
					zap.String("loan_id", e.LoanID),
					zap.Error(err))
			}
		}
	}
}
