package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Pinger is a HealthChecker spelled the way the Redis client spells it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups the collaborators of DispatchFacade.
type Deps struct {
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
	Database    HealthChecker
	Cache       Pinger
	Lease       time.Duration
	Logger      *slog.Logger
}

// DispatchFacade binds the order lifecycle use cases to server-held flows.
type DispatchFacade struct {
	sessions    *usecase.SessionUseCase
	coordinator *usecase.SubmissionCoordinator
	assignments *usecase.AssignmentService
	compensator *usecase.Compensator
	gate        *usecase.CompletionGate
	editor      *usecase.OrderEditor
	validator   *usecase.DraftValidator
	directory   usecase.LocationDirectory
	images      usecase.ImageConverter
	pending     repository.PendingOrderRepository
	flows       *FlowRegistry
	database    HealthChecker
	cache       Pinger
	lease       time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewDispatchFacade constructs DispatchFacade.
func NewDispatchFacade(d Deps) *DispatchFacade {
	return &DispatchFacade{
		sessions:    d.Sessions,
		coordinator: d.Coordinator,
		assignments: d.Assignments,
		compensator: d.Compensator,
		gate:        d.Gate,
		editor:      d.Editor,
		validator:   d.Validator,
		directory:   d.Directory,
		images:      d.Images,
		pending:     d.Repos.PendingOrders(),
		flows:       d.Flows,
		database:    d.Database,
		cache:       d.Cache,
		lease:       d.Lease,
		logger:      d.Logger,
		now:         time.Now,
	}
}

// --- sessions ---

func (d *DispatchFacade) Login(ctx context.Context, username, password string) (*model.Session, string, error) {
	return d.sessions.Login(ctx, username, password)
}

func (d *DispatchFacade) Logout(ctx context.Context, session *model.Session) error {
	return d.sessions.Logout(ctx, session.ID)
}

func (d *DispatchFacade) Resolve(ctx context.Context, token string) (*model.Session, error) {
	return d.sessions.Resolve(ctx, token)
}

// Health checks the database and the session cache.
func (d *DispatchFacade) Health(ctx context.Context) error {
	var errs []error
	if d.database != nil {
		if err := d.database.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if d.cache != nil {
		if err := d.cache.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sessions: %w", err))
		}
	}
	return errors.Join(errs...)
}

// --- orders ---

// CompleteOrder finishes key with optional evidence using the caller's API token.
func (d *DispatchFacade) CompleteOrder(ctx context.Context, session *model.Session, key string, evidence *model.Image, n usecase.Notifier) error {
	order, err := d.editor.Order(ctx, key)
	if err != nil {
		if n != nil {
			n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not load the order"))
		}
		return err
	}
	return d.gate.Complete(ctx, session.Capability(), session.Token, order, evidence, n)
}

func (d *DispatchFacade) DeleteOrder(ctx context.Context, session *model.Session, key string, variant model.Variant, n usecase.Notifier) error {
	return d.editor.Delete(ctx, key, variant, session.Token, n)
}

func (d *DispatchFacade) Assignments(ctx context.Context, key string) ([]model.Assignment, error) {
	return d.assignments.Assignments(ctx, key)
}

func (d *DispatchFacade) DeleteAssignment(ctx context.Context, id int64, n usecase.Notifier) error {
	return d.assignments.DeleteAssignment(ctx, id, n)
}

// --- worker ---

// DueCompensations claims pending orders whose deletion must be retried.
func (d *DispatchFacade) DueCompensations(ctx context.Context, limit int) ([]model.PendingOrder, error) {
	return d.pending.SelectDueCompensations(ctx, d.now(), limit, d.lease)
}

func (d *DispatchFacade) RetryCompensation(ctx context.Context, entry model.PendingOrder) error {
	return d.compensator.Retry(ctx, entry)
}

// ExpireIdleFlows closes abandoned flows and compensates their pending orders.
func (d *DispatchFacade) ExpireIdleFlows(ctx context.Context) int {
	expired := d.flows.Expire()
	for _, flow := range expired {
		key := flow.pending()
		if key == "" {
			continue
		}
		if err := d.compensator.Abandon(ctx, key, nil); err != nil {
			d.logger.Warn("idle flow compensation failed",
				slog.String("flow", flow.id),
				slog.String("order", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return len(expired)
}

// CloseFlows cancels every open flow during shutdown.
func (d *DispatchFacade) CloseFlows() {
	d.flows.CloseAll()
}
