package mexc

import (
	"go.uber.org/fx"

	"pump_bot/internal/modules/mexc/service"
)

func Module() fx.Option {
	return fx.Module("mexc",
		fx.Provide(
			service.NewClient,
		),
	)
}
