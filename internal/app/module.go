package app

import (
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/api/server"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/auditlog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/checkout"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/reconcile"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/statistics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhook"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhooklog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/db"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/redisdb"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logger"

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
	redisdb.Module,
	thawani.Module,
	server.Module,
	auditlog.Module,
	webhooklog.Module,
	donation.Module,
	checkout.Module,
	statistics.Module,
	webhook.Module,
	reconcile.Module,
)
