package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

const finishedMemory = 4096

// CompletionGate moves orders to Finished, at most once per order.
type CompletionGate struct {
	orders OrderGateway
	images ImageConverter
	logger *slog.Logger

	mu       sync.Mutex
	finished map[string]struct{}
	order    []string
	inflight map[string]struct{}
}

// NewCompletionGate constructs CompletionGate.
func NewCompletionGate(orders OrderGateway, images ImageConverter, logger *slog.Logger) *CompletionGate {
	return &CompletionGate{
		orders:   orders,
		images:   images,
		logger:   logger,
		finished: map[string]struct{}{},
		inflight: map[string]struct{}{},
	}
}

// Complete finishes order with optional evidence. Already finished orders are
// a no-op reported as an informational notice. order is updated only after the
// remote API confirms the transition.
func (g *CompletionGate) Complete(ctx context.Context, capability model.Capability, token string, order *model.Order, evidence *model.Image, n Notifier) error {
	n = notifierOrDiscard(n)

	if !capability.IsAdmin {
		n.Notify(model.NotificationError, domainErrors.ErrForbidden.Error())
		return domainErrors.ErrForbidden
	}

	g.mu.Lock()
	_, recorded := g.finished[order.Key]
	if order.Status == model.OrderStatusFinished || recorded {
		g.mu.Unlock()
		n.Notify(model.NotificationInfo, "Order is already finished")
		return nil
	}
	if order.Status == model.OrderStatusInactive {
		g.mu.Unlock()
		n.Notify(model.NotificationError, domainErrors.ErrOrderInactive.Error())
		return domainErrors.ErrOrderInactive
	}
	if _, busy := g.inflight[order.Key]; busy {
		g.mu.Unlock()
		n.Notify(model.NotificationInfo, "Order completion is already in progress")
		return domainErrors.ErrBusy
	}
	g.inflight[order.Key] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inflight, order.Key)
		g.mu.Unlock()
	}()

	var upload *model.Upload
	if evidence != nil && evidence.URI != "" {
		var err error
		if upload, err = g.images.Upload(*evidence); err != nil {
			n.Notify(model.NotificationError, "Evidence could not be read")
			return fmt.Errorf("read evidence: %w", err)
		}
	}

	if err := g.orders.SetOrderStatus(ctx, token, order.Key, model.OrderStatusFinished, upload); err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not finish the order"))
		return err
	}

	g.remember(order.Key)
	order.Status = model.OrderStatusFinished
	g.logger.Info("order finished", slog.String("order", order.Key), slog.Bool("evidence", upload != nil))
	n.Notify(model.NotificationSuccess, "Order finished")
	return nil
}

func (g *CompletionGate) remember(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.finished[key]; ok {
		return
	}
	if len(g.order) >= finishedMemory {
		delete(g.finished, g.order[0])
		g.order = g.order[1:]
	}
	g.finished[key] = struct{}{}
	g.order = append(g.order, key)
}
