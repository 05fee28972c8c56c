package cron

import (
	"context"
	"errors"

	billsvc "github.com/autobot/backoffice/internal/app/service/billing"
	cfgpkg "github.com/autobot/backoffice/pkg/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler runs the nightly billing cycle in-process. The engine holds a
// database-level run lock, so overlapping with a manually triggered run is
// safe; the later run reports ErrRunInProgress and is skipped.
type Scheduler struct {
	c      *cron.Cron
	engine *billsvc.Engine
	log    *zap.SugaredLogger
}

func New(engine *billsvc.Engine, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{c: cron.New(), engine: engine, log: log}
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	summary, err := s.engine.Run(ctx, billsvc.TriggerScheduled)
	if err != nil {
		if errors.Is(err, billsvc.ErrRunInProgress) {
			s.log.Warnw("scheduled billing skipped, another run in progress")
			return
		}
		s.log.Errorw("scheduled billing failed", "error", err)
		return
	}
	s.log.Infow("scheduled billing finished",
		"total", summary.Total, "successful", summary.Successful, "failed", summary.Failed)
}

func register(lc fx.Lifecycle, s *Scheduler, cfg *cfgpkg.Config) error {
	if !cfg.Billing.CronEnabled {
		s.log.Infow("billing cron disabled")
		return nil
	}
	if _, err := s.c.AddFunc(cfg.Billing.CronSpec, s.runOnce); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.log.Infow("billing cron started", "spec", cfg.Billing.CronSpec)
			s.c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := s.c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)
