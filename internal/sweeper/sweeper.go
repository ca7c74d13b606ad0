// Package sweeper periodically moves reservations whose end has passed to
// the completed state.
package sweeper

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Completer completes every live reservation that has ended.
type Completer interface {
	CompleteEnded(ctx context.Context) (int, error)
}

// Sweeper runs a Completer on a cron schedule.
type Sweeper struct {
	completer Completer
	schedule  cron.Schedule
	log       *zap.Logger
}

// New parses spec (standard cron syntax or a descriptor such as
// "@every 5m") and returns a Sweeper.
func New(completer Completer, spec string, log *zap.Logger) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{completer: completer, schedule: schedule, log: log}, nil
}

// Sweep runs one completion pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.completer.CompleteEnded(ctx)
	if err != nil {
		s.log.Error("completion sweep failed", zap.Error(err))
		return 0, err
	}
	s.log.Debug("completion sweep", zap.Int("completed", n))
	return n, nil
}

// Run sweeps once immediately, then on schedule until ctx is cancelled.
// Overlapping runs are skipped.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.Sweep(ctx)
	}))

	_, _ = s.Sweep(ctx)
	c.Start()
	s.log.Debug("sweeper started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Debug("sweeper stopped")
	return nil
}
