package reconcile

import (
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(func(c *thawani.Client) Gateway { return c }),
	fx.Provide(NewService),
	fx.Invoke(runScheduler),
)
