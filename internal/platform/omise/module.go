package omise

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(func(c *Client) Charger { return c }),
	fx.Provide(NewClient),
)
