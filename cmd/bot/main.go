package main

import (
	"go.uber.org/fx"

	"pump_bot/internal/modules/bootstrap"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/executor"
	"pump_bot/internal/modules/health"
	"pump_bot/internal/modules/ingest"
	"pump_bot/internal/modules/mexc"
	"pump_bot/internal/modules/store"
	telegram "pump_bot/internal/modules/telegram_bot"
	"pump_bot/pkg/logger"
	"pump_bot/pkg/tracing"
)

const serviceName = "pump_bot"

func main() {
	logger.SetServiceName(serviceName)
	tracing.SetServiceName(serviceName)
	defer logger.Sync()

	app := fx.New(
		config.Module(),
		mexc.Module(),
		store.Module(),
		bootstrap.Module(),
		telegram.Module(),
		health.Module(),
		executor.Module(),
		ingest.Module(),
	)
	app.Run()
}
