package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeLoans struct {
	calls atomic.Int32
	actor atomic.Value
	n     int
	err   error
}

func (f *fakeLoans) SweepOverdue(_ context.Context, actorID string) (int, error) {
	f.calls.Add(1)
	f.actor.Store(actorID)
	return f.n, f.err
}

func TestRunOnce(t *testing.T) {
	f := &fakeLoans{n: 2}
	s := NewSweeper(f, time.Second, nil)
	if got := s.RunOnce(context.Background()); got != 2 {
		t.Fatalf("defaulted = %d", got)
	}
	if f.actor.Load() != SystemActor {
		t.Fatalf("actor = %v", f.actor.Load())
	}

	f.err = errors.New("db down")
	f.n = 0
	if got := s.RunOnce(context.Background()); got != 0 {
		t.Fatalf("defaulted = %d", got)
	}
}

func TestSchedule(t *testing.T) {
	s := NewSweeper(&fakeLoans{}, 0, nil)
	if err := s.Schedule("not a spec"); err == nil {
		t.Fatalf("bad spec should be rejected")
	}
	if err := s.Schedule("@every 10ms"); err != nil {
		t.Fatal(err)
	}
}

func TestStartStop(t *testing.T) {
	f := &fakeLoans{}
	s := NewSweeper(f, 0, nil)
	if err := s.Schedule("@every 1s"); err != nil {
		t.Fatal(err)
	}
	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	if f.calls.Load() == 0 {
		t.Fatalf("scheduled sweep never ran")
	}
}
