package billing

import "go.uber.org/fx"

// Module exposes the billing engine and its Postgres store via Fx.
var Module = fx.Options(
	fx.Provide(NewGormStore),
	fx.Provide(func(s *GormStore) Store { return s }),
	fx.Provide(New),
)
