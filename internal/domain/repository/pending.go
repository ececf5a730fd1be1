package repository

import (
	"context"
	"time"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// PendingOrderRepository persists orders awaiting assignment and their compensation state.
type PendingOrderRepository interface {
	Record(ctx context.Context, order model.PendingOrder) error
	Get(ctx context.Context, key string) (*model.PendingOrder, error)
	UpdateState(ctx context.Context, key string, state model.PendingState, lastError string) error
	ScheduleRetry(ctx context.Context, key string, lastError string, next time.Time) error
	SelectDueCompensations(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]model.PendingOrder, error)
}
