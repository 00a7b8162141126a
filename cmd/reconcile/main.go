package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/auditlog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/reconcile"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/db"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/redisdb"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logger"

	"go.uber.org/zap"
)

// One-shot reconciliation pass, for deployments that run the safety net
// from cron instead of the in-process scheduler, and for operators who
// want a dry run before trusting it.
func main() {
	dryRun := flag.Bool("dry-run", false, "report decisions without applying them")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall pass deadline")
	flag.Parse()

	log, err := logger.New()
	if err != nil {
		zap.NewExample().Sugar().Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	gdb, err := db.NewDB(log, cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	rdb := redisdb.NewClient(log, cfg)
	defer rdb.Close()

	gw, err := thawani.NewClient(cfg, log)
	if err != nil {
		log.Fatalf("failed to build gateway client: %v", err)
	}

	audit := auditlog.New(gdb, log)
	idem := donation.NewIdempotencyStore(cfg, rdb, log)
	donationSvc := donation.NewService(cfg, gdb, log, audit, idem)
	svc := reconcile.NewService(cfg, gw, donationSvc, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summary, decisions, err := svc.Run(ctx, *dryRun)
	if err != nil {
		log.Fatalf("reconcile pass failed: %v", err)
	}

	out := map[string]any{"summary": summary}
	if *dryRun {
		out["decisions"] = decisions
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("failed to encode output: %v", err)
	}
}
