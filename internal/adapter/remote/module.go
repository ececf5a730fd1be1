package remote

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/GS-Pro2025/movewise/internal/config"
)

// Module exposes the remote API client to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (*HTTPClient, error) {
	return NewHTTPClient(p.Config.APIBaseURL, Options{
		Timeout:   p.Config.APITimeout,
		RateLimit: p.Config.APIRateLimit,
		Burst:     p.Config.APIBurst,
	}, p.Logger)
}
