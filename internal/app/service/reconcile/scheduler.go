package reconcile

import (
	"context"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// runScheduler runs reconciliation passes on a fixed interval for the
// lifetime of the process. Disabled deployments rely on the one-shot
// CLI instead.
func runScheduler(lc fx.Lifecycle, cfg *config.Config, svc *Service, log *zap.SugaredLogger) {
	if !cfg.Reconcile.Enabled {
		log.Infow("reconcile scheduler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.Reconcile.Interval)
				defer ticker.Stop()
				log.Infow("reconcile scheduler started", "interval", cfg.Reconcile.Interval)
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if _, _, err := svc.Run(ctx, false); err != nil && ctx.Err() == nil {
							log.Errorw("reconcile_pass_failed", "err", err)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
