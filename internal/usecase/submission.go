package usecase

import (
	"context"
	"fmt"
	"log/slog"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
)

// SubmissionCoordinator persists new orders and hands them over to assignment.
type SubmissionCoordinator struct {
	validator   *DraftValidator
	orders      OrderGateway
	images      ImageConverter
	pending     repository.PendingOrderRepository
	assignments *AssignmentService
	logger      *slog.Logger
}

// NewSubmissionCoordinator constructs SubmissionCoordinator.
func NewSubmissionCoordinator(
	validator *DraftValidator,
	orders OrderGateway,
	images ImageConverter,
	factory repository.Factory,
	assignments *AssignmentService,
	logger *slog.Logger,
) *SubmissionCoordinator {
	return &SubmissionCoordinator{
		validator:   validator,
		orders:      orders,
		images:      images,
		pending:     factory.PendingOrders(),
		assignments: assignments,
		logger:      logger,
	}
}

// Submit validates draft, creates the order and opens its assignment session.
// On success the draft is reset; on any failure it is left untouched.
func (c *SubmissionCoordinator) Submit(ctx context.Context, flowID string, draft *model.OrderDraft, capability model.Capability, n Notifier) (*AssignmentSession, error) {
	n = notifierOrDiscard(n)

	if err := c.validator.Validate(*draft); err != nil {
		n.Notify(model.NotificationError, err.Error())
		return nil, err
	}
	location, err := ComposeLocation(draft.Country, draft.State, draft.City)
	if err != nil {
		n.Notify(model.NotificationError, err.Error())
		return nil, err
	}

	ticket, err := c.images.DataURI(*draft.DispatchTicket)
	if err != nil {
		n.Notify(model.NotificationError, "Dispatch ticket could not be read")
		return nil, fmt.Errorf("encode dispatch ticket: %w", err)
	}

	variant := draft.Variant
	if !variant.IsValid() {
		variant = model.VariantWorkhouse
	}
	key, err := c.orders.CreateOrder(ctx, variant, buildPayload(*draft, location, ticket))
	if err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not create the order"))
		return nil, err
	}

	n.Notify(model.NotificationSuccess, "Order created")
	draft.Reset()

	entry := model.PendingOrder{Key: key, Variant: variant, FlowID: flowID, State: model.PendingStateAwaiting}
	if err := c.pending.Record(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Error("failed to record pending order", slog.String("order", key), slog.Any("error", err))
	}

	session := c.assignments.Open(key, capability)
	if err := session.Refresh(ctx); err != nil {
		c.logger.Warn("failed to load assigned operators", slog.String("order", key), slog.Any("error", err))
	}
	if _, err := session.LoadOperators(ctx, 1, ""); err != nil {
		c.logger.Warn("failed to load operators", slog.String("order", key), slog.Any("error", err))
	}
	return session, nil
}
