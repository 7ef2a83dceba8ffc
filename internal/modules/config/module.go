package config

import (
	"go.uber.org/fx"

	"pump_bot/pkg/logger"
)

// Module регистрирует *Config как fx-провайдер и поднимает логгер с уровнем из конфига.
// Должен идти первым: остальные модули пишут в лог уже в конструкторах.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(func(cfg *Config) error {
			return logger.Init(cfg.LogLevel)
		}),
	)
}
