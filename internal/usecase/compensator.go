package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
)

// CompensationPolicy decides what happens when deleting an abandoned order fails.
type CompensationPolicy string

const (
	// PolicyConfirm keeps retrying the delete until it is confirmed.
	PolicyConfirm CompensationPolicy = "confirm"
	// PolicyFireAndForget reports the failure and leaves the order behind.
	PolicyFireAndForget CompensationPolicy = "fire-and-forget"
)

const maxCompensationBackoff = time.Hour

// CompensatorOptions tunes Compensator.
type CompensatorOptions struct {
	Policy      CompensationPolicy
	MaxAttempts int
	Backoff     time.Duration
}

// Compensator deletes orders whose assignment step was abandoned.
type Compensator struct {
	orders      OrderGateway
	pending     repository.PendingOrderRepository
	policy      CompensationPolicy
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewCompensator constructs Compensator.
func NewCompensator(orders OrderGateway, factory repository.Factory, opts CompensatorOptions, logger *slog.Logger) *Compensator {
	if opts.Policy != PolicyFireAndForget {
		opts.Policy = PolicyConfirm
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 10 * time.Second
	}
	return &Compensator{
		orders:      orders,
		pending:     factory.PendingOrders(),
		policy:      opts.Policy,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		now:         time.Now,
		logger:      logger,
	}
}

// Policy returns the configured policy.
func (c *Compensator) Policy() CompensationPolicy {
	return c.policy
}

// Abandon deletes the pending order key. The caller closes its flow whatever
// the outcome; a failed delete is either queued for retry or recorded as
// orphaned depending on the policy.
func (c *Compensator) Abandon(ctx context.Context, key string, n Notifier) error {
	n = notifierOrDiscard(n)
	if key == "" {
		return domainErrors.ErrNoPendingOrder
	}

	ledgerCtx := context.WithoutCancel(ctx)
	err := c.orders.DeleteOrder(ctx, key)
	if err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		c.setState(ledgerCtx, key, model.PendingStateCompensated, "")
		n.Notify(model.NotificationInfo, "Unassigned order was discarded")
		return nil
	}

	n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not delete the unassigned order"))
	switch c.policy {
	case PolicyConfirm:
		c.schedule(ledgerCtx, key, err.Error(), c.now().Add(c.backoff))
	default:
		c.logger.Warn("abandoned order left behind", slog.String("order", key), slog.Any("error", err))
		c.setState(ledgerCtx, key, model.PendingStateOrphaned, err.Error())
	}
	return err
}

// Retry re-attempts the delete of a queued compensation.
func (c *Compensator) Retry(ctx context.Context, entry model.PendingOrder) error {
	err := c.orders.DeleteOrder(ctx, entry.Key)
	if err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		c.setState(ctx, entry.Key, model.PendingStateCompensated, "")
		return nil
	}

	attempts := entry.Attempts + 1
	if attempts >= c.maxAttempts {
		c.logger.Error("giving up on abandoned order", slog.String("order", entry.Key), slog.Int("attempts", attempts), slog.Any("error", err))
		c.setState(ctx, entry.Key, model.PendingStateOrphaned, err.Error())
		return err
	}
	c.schedule(ctx, entry.Key, err.Error(), c.now().Add(c.backoffFor(attempts)))
	return err
}

func (c *Compensator) backoffFor(attempts int) time.Duration {
	d := c.backoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxCompensationBackoff {
			return maxCompensationBackoff
		}
	}
	return d
}

func (c *Compensator) schedule(ctx context.Context, key, lastError string, next time.Time) {
	err := c.pending.ScheduleRetry(ctx, key, lastError, next)
	if errors.Is(err, domainErrors.ErrNotFound) {
		err = c.pending.Record(ctx, model.PendingOrder{
			Key:           key,
			State:         model.PendingStateCompensating,
			Attempts:      1,
			LastError:     lastError,
			NextAttemptAt: next,
		})
	}
	if err != nil {
		c.logger.Error("failed to queue compensation", slog.String("order", key), slog.Any("error", err))
	}
}

func (c *Compensator) setState(ctx context.Context, key string, state model.PendingState, lastError string) {
	if err := c.pending.UpdateState(ctx, key, state, lastError); err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		c.logger.Error("failed to update pending order", slog.String("order", key), slog.String("state", string(state)), slog.Any("error", err))
	}
}
