package subscription

import "go.uber.org/fx"

// Module exposes the admin subscription operations via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
