package donation

import "go.uber.org/fx"

// Module exposes the donation service via Fx.
var Module = fx.Options(
	fx.Provide(NewIdempotencyStore),
	fx.Provide(NewService),
)
