package main

import (
	"codeinterview/internal/app"
	"codeinterview/internal/config"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	fx.New(
		fx.Supply(cfg),
		app.Module,
		fx.StopTimeout(cfg.ShutdownTimeout),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	).Run()
}
