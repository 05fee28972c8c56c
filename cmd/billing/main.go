package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/autobot/backoffice/internal/app"
	billsvc "github.com/autobot/backoffice/internal/app/service/billing"
	"github.com/autobot/backoffice/internal/platform/db"
	"github.com/autobot/backoffice/internal/platform/omise"
	"github.com/autobot/backoffice/pkg/config"
	"github.com/autobot/backoffice/pkg/logger"
)

// One-shot billing runner for external schedulers. Runs a single scheduled
// billing cycle against the database and exits non-zero on failure, so a
// crontab or Kubernetes CronJob can alert on it.
func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	var (
		engine *billsvc.Engine
		log    *zap.SugaredLogger
	)
	a := fx.New(
		logger.Module,
		config.Module,
		db.Module,
		omise.Module,
		billsvc.Module,
		fx.Populate(&engine, &log),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to start: %v", err)
		exitCode = 1
		return
	}
	defer func() {
		stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
		defer cancel2()
		if err := a.Stop(stopCtx); err != nil {
			log.Errorf("failed to stop: %v", err)
			exitCode = 1
		}
	}()

	summary, err := engine.Run(context.Background(), billsvc.TriggerScheduled)
	if err != nil {
		if errors.Is(err, billsvc.ErrRunInProgress) {
			log.Warnw("billing run skipped, another run in progress")
			return
		}
		log.Errorw("billing run failed", "error", err)
		exitCode = 1
		return
	}

	log.Infow("billing run finished",
		"total", summary.Total, "successful", summary.Successful, "failed", summary.Failed)
	_ = json.NewEncoder(os.Stdout).Encode(summary)
}
