package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/GS-Pro2025/movewise/internal/config"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
	"github.com/GS-Pro2025/movewise/internal/usecase"
	"github.com/GS-Pro2025/movewise/internal/worker"
)

// minLease bounds how long a claimed compensation stays invisible to other pollers.
const minLease = 30 * time.Second

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newFlowRegistry,
		newDispatchFacade,
		newHTTPServer,
		newCompensationWorker,
	),
	fx.Invoke(registerLifecycle),
)

func newFlowRegistry(cfg *config.Config) *FlowRegistry {
	return NewFlowRegistry(cfg.FlowIdleTTL)
}

type facadeParams struct {
	fx.In

	Config      *config.Config
	Logger      *slog.Logger
	Sessions    *usecase.SessionUseCase
	Coordinator *usecase.SubmissionCoordinator
	Assignments *usecase.AssignmentService
	Compensator *usecase.Compensator
	Gate        *usecase.CompletionGate
	Editor      *usecase.OrderEditor
	Validator   *usecase.DraftValidator
	Directory   usecase.LocationDirectory
	Images      usecase.ImageConverter
	Repos       repository.Factory
	Flows       *FlowRegistry
	Database    HealthChecker `optional:"true"`
	Cache       Pinger        `optional:"true"`
}

func newDispatchFacade(p facadeParams) *DispatchFacade {
	return NewDispatchFacade(Deps{
		Sessions:    p.Sessions,
		Coordinator: p.Coordinator,
		Assignments: p.Assignments,
		Compensator: p.Compensator,
		Gate:        p.Gate,
		Editor:      p.Editor,
		Validator:   p.Validator,
		Directory:   p.Directory,
		Images:      p.Images,
		Repos:       p.Repos,
		Flows:       p.Flows,
		Database:    p.Database,
		Cache:       p.Cache,
		Lease:       leaseFor(p.Config),
		Logger:      p.Logger,
	})
}

// leaseFor covers one remote delete attempt with room to spare.
func leaseFor(cfg *config.Config) time.Duration {
	lease := 2 * cfg.APITimeout
	if lease < minLease {
		lease = minLease
	}
	return lease
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

type workerParams struct {
	fx.In

	Facade *DispatchFacade
	Config *config.Config
	Logger *slog.Logger
}

func newCompensationWorker(p workerParams) *worker.CompensationWorker {
	return worker.NewCompensationWorker(
		p.Facade,
		p.Config.CompensationPollInterval,
		p.Config.CompensationBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.CompensationWorker
	Flows      *FlowRegistry
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting movewise",
				slog.String("addr", p.Server.Addr),
				slog.String("compensation_policy", p.Config.CompensationPolicy),
			)
			p.Worker.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			if open := p.Flows.Len(); open > 0 {
				p.Logger.Info("closing open flows", slog.Int("count", open))
			}
			p.Flows.CloseAll()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("movewise stopped")
			return nil
		},
	})
}
