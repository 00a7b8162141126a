package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/docs"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/api/handlers"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/checkout"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/reconcile"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/statistics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhook"
	cfgpkg "github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"

	mw "github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/api/middleware"

	metrics "github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config,
	donationSvc *donation.Service, checkoutSvc *checkout.Service,
	webhookSvc *webhook.Service, reconcileSvc *reconcile.Service, stats *statistics.Service) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			URLLabelFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}
	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	payments := apiV1.Group("/payments")
	handlers.RegisterPaymentRoutes(payments, checkoutSvc)
	handlers.RegisterPaymentWebhookRoutes(payments, webhookSvc)

	handlers.RegisterDonationRoutes(apiV1.Group("/donations"), donationSvc, checkoutSvc)

	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), donationSvc, reconcileSvc, stats)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
