// Package audit records who changed what on a loan.
package audit

import (
	"context"

	"go.uber.org/zap"

	"cooploan-backend/internal/domain/event"
)

// Sink persists audit entries. old and new are free-form snapshots.
type Sink interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, old, new any) error
}

// ZapSink writes entries to a dedicated logger so they can be shipped
// separately from application logs.
type ZapSink struct{ log *zap.Logger }

func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapSink{log: log.Named("audit")}
}

func (s *ZapSink) Record(_ context.Context, actorID, action, entityType, entityID string, old, new any) error {
	s.log.Info(action,
		zap.String("actor_id", actorID),
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
		zap.Any("old", old),
		zap.Any("new", new))
	return nil
}

type state struct {
	Status string `json:"status,omitempty"`
}

// Subscriber audits every loan state change.
type Subscriber struct{ sink Sink }

func NewSubscriber(sink Sink) *Subscriber { return &Subscriber{sink: sink} }

func (s *Subscriber) Name() string { return "audit" }

func (s *Subscriber) Handle(ctx context.Context, e event.Event) error {
	if !e.StateChange() {
		return nil
	}
	actor := e.ActorID
	if actor == "" {
		actor = "system"
	}
	return s.sink.Record(ctx, actor, string(e.Name), "loan", e.LoanID, state{Status: e.OldState}, state{Status: e.NewState})
}
