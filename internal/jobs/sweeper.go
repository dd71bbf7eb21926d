// Package jobs runs the scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SystemActor is recorded as the actor of scheduled transitions.
const SystemActor = "system"

type overdueSweeper interface {
	SweepOverdue(ctx context.Context, actorID string) (int, error)
}

// Sweeper marks loans past their grace period as defaulted on a cron schedule.
type Sweeper struct {
	loans   overdueSweeper
	cron    *cron.Cron
	timeout time.Duration
	log     *zap.Logger
}

func NewSweeper(loans overdueSweeper, timeout time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		loans:   loans,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		log:     log.Named("jobs"),
	}
}

// Schedule registers the sweep under a standard five-field cron spec.
func (s *Sweeper) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) })
	return err
}

// RunOnce performs one sweep and returns how many loans were defaulted.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	n, err := s.loans.SweepOverdue(ctx, SystemActor)
	if err != nil {
		s.log.Error("overdue sweep failed", zap.Error(err))
		return n
	}
	s.log.Info("overdue sweep done", zap.Int("defaulted", n), zap.Duration("took", time.Since(start)))
	return n
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
