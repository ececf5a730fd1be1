package logger

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/GS-Pro2025/movewise/internal/config"
)

// Module wires slog logger for dependency injection and routes fx events through it.
var Module = fx.Options(
	fx.Provide(newLogger),
	fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
		return &fxevent.SlogLogger{Logger: l}
	}),
)

type loggerParams struct {
	fx.In

	Config *config.Config `optional:"true"`
}

func newLogger(p loggerParams) *slog.Logger {
	if p.Config == nil {
		return New()
	}
	return NewWithLevel(p.Config.LogLevel)
}
