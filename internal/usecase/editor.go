package usecase

import (
	"context"
	"fmt"
	"log/slog"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// OrderEditor serves the edit and delete actions on existing orders.
type OrderEditor struct {
	orders    OrderGateway
	validator *DraftValidator
	images    ImageConverter
	logger    *slog.Logger
}

// NewOrderEditor constructs OrderEditor.
func NewOrderEditor(orders OrderGateway, validator *DraftValidator, images ImageConverter, logger *slog.Logger) *OrderEditor {
	return &OrderEditor{orders: orders, validator: validator, images: images, logger: logger}
}

// Open loads key for editing. Finished and inactive orders are refused.
func (e *OrderEditor) Open(ctx context.Context, key string) (*model.Order, error) {
	order, err := e.orders.GetOrder(ctx, key)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case model.OrderStatusFinished:
		return nil, domainErrors.ErrAlreadyFinished
	case model.OrderStatusInactive:
		return nil, domainErrors.ErrOrderInactive
	}
	return order, nil
}

// Order loads key without edit guards.
func (e *OrderEditor) Order(ctx context.Context, key string) (*model.Order, error) {
	return e.orders.GetOrder(ctx, key)
}

// DraftFromOrder fills an edit draft from an existing order.
func DraftFromOrder(order model.Order, variant model.Variant) model.OrderDraft {
	draft := model.OrderDraft{
		Variant:        variant,
		Date:           order.Date,
		Reference:      order.Reference,
		FirstName:      order.Contact.FirstName,
		LastName:       order.Contact.LastName,
		Email:          order.Contact.Email,
		Phone:          order.Contact.Phone,
		Address:        order.Contact.Address,
		Weight:         order.Weight,
		JobID:          order.JobID,
		CompanyID:      order.CompanyID,
		DispatchTicket: order.DispatchTicket,
	}
	if country, state, city, ok := SplitLocation(order.Location); ok {
		draft.Country, draft.State, draft.City = country, state, city
	}
	return draft
}

// Save validates draft and applies it to key. The draft is kept on failure.
func (e *OrderEditor) Save(ctx context.Context, key string, draft model.OrderDraft, n Notifier) error {
	n = notifierOrDiscard(n)

	if err := e.validator.Validate(draft); err != nil {
		n.Notify(model.NotificationError, err.Error())
		return err
	}
	location, err := ComposeLocation(draft.Country, draft.State, draft.City)
	if err != nil {
		n.Notify(model.NotificationError, err.Error())
		return err
	}
	ticket, err := e.images.DataURI(*draft.DispatchTicket)
	if err != nil {
		n.Notify(model.NotificationError, "Dispatch ticket could not be read")
		return fmt.Errorf("encode dispatch ticket: %w", err)
	}

	if err := e.orders.UpdateOrder(ctx, key, buildPayload(draft, location, ticket)); err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not update the order"))
		return err
	}
	n.Notify(model.NotificationSuccess, "Order updated")
	return nil
}

// Delete removes key. Standard orders are hard-deleted; workhouse orders are
// marked inactive, which needs the user's token.
func (e *OrderEditor) Delete(ctx context.Context, key string, variant model.Variant, token string, n Notifier) error {
	n = notifierOrDiscard(n)

	var err error
	if variant == model.VariantWorkhouse {
		err = e.orders.SetOrderStatus(ctx, token, key, model.OrderStatusInactive, nil)
	} else {
		err = e.orders.DeleteOrder(ctx, key)
	}
	if err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not delete the order"))
		return err
	}
	e.logger.Info("order deleted", slog.String("order", key), slog.String("variant", string(variant)))
	n.Notify(model.NotificationSuccess, "Order deleted")
	return nil
}
