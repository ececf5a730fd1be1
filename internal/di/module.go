package di

import (
	"go.uber.org/fx"

	"github.com/GS-Pro2025/movewise/internal/adapter/media"
	"github.com/GS-Pro2025/movewise/internal/adapter/remote"
	"github.com/GS-Pro2025/movewise/internal/app"
	"github.com/GS-Pro2025/movewise/internal/config"
	"github.com/GS-Pro2025/movewise/internal/logger"
	"github.com/GS-Pro2025/movewise/internal/pkg/auth"
	"github.com/GS-Pro2025/movewise/internal/server/http/handlers"
	"github.com/GS-Pro2025/movewise/internal/server/http/router"
	"github.com/GS-Pro2025/movewise/internal/storage/postgres"
	"github.com/GS-Pro2025/movewise/internal/storage/session"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// Module assembles the whole service graph; opts are appended last so tests can replace adapters.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		session.Module,
		remote.Module,
		media.Module,
		ports,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

var ports = fx.Provide(
	func(c *remote.HTTPClient) usecase.OrderGateway { return c },
	func(c *remote.HTTPClient) usecase.AssignmentGateway { return c },
	func(c *remote.HTTPClient) usecase.LocationDirectory { return c },
	func(c *remote.HTTPClient) usecase.Authenticator { return c },
	func(c *media.Converter) usecase.ImageConverter { return c },
	func(s *session.Store) usecase.SessionStore { return s },
	func(s *session.Store) app.Pinger { return s },
	func(s *postgres.Storage) app.HealthChecker { return s },
	func(f *app.DispatchFacade) handlers.DispatchFacade { return f },
)
