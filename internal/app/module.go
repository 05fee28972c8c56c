package app

import (
	"time"

	"github.com/autobot/backoffice/internal/app/api/server"
	"github.com/autobot/backoffice/internal/app/cron"
	"github.com/autobot/backoffice/internal/app/service/billing"
	"github.com/autobot/backoffice/internal/app/service/invoice"
	"github.com/autobot/backoffice/internal/app/service/plan"
	"github.com/autobot/backoffice/internal/app/service/stats"
	"github.com/autobot/backoffice/internal/app/service/subscription"
	"github.com/autobot/backoffice/internal/platform/db"
	"github.com/autobot/backoffice/internal/platform/omise"
	"github.com/autobot/backoffice/pkg/config"
	"github.com/autobot/backoffice/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	omise.Module,
	server.Module,
	billing.Module,
	plan.Module,
	subscription.Module,
	invoice.Module,
	stats.Module,
	cron.Module,
)
