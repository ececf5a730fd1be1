package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/GS-Pro2025/movewise/internal/adapter/remote"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// CompensationFacade exposes the subset of application functionality required by the worker.
type CompensationFacade interface {
	DueCompensations(ctx context.Context, limit int) ([]model.PendingOrder, error)
	RetryCompensation(ctx context.Context, entry model.PendingOrder) error
	ExpireIdleFlows(ctx context.Context) int
}

// CompensationWorker polls the pending-order ledger and retries the deletion
// of abandoned orders concurrently. Each tick also closes idle flows.
type CompensationWorker struct {
	facade       CompensationFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.PendingOrder
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewCompensationWorker constructs the compensation worker pool.
func NewCompensationWorker(facade CompensationFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *CompensationWorker {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &CompensationWorker{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.PendingOrder, batchSize*workers),
	}
}

// Start launches background processing.
func (w *CompensationWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(runCtx)
	}

	w.wg.Add(1)
	go w.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (w *CompensationWorker) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *CompensationWorker) dispatch(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.jobs)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.facade.ExpireIdleFlows(ctx); n > 0 {
				w.logger.Info("idle flows closed", slog.Int("count", n))
			}
			w.fetchAndDispatch(ctx)
		}
	}
}

func (w *CompensationWorker) fetchAndDispatch(ctx context.Context) {
	due, err := w.facade.DueCompensations(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("fetch due compensations failed", slog.String("error", err.Error()))
		return
	}
	for _, entry := range due {
		select {
		case <-ctx.Done():
			return
		case w.jobs <- entry:
		}
	}
}

func (w *CompensationWorker) worker(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-w.jobs:
			if !ok {
				return
			}
			w.handle(ctx, entry)
		}
	}
}

func (w *CompensationWorker) handle(ctx context.Context, entry model.PendingOrder) {
	err := w.facade.RetryCompensation(ctx, entry)
	if err == nil {
		return
	}

	var limited remote.TooManyRequestsError
	if errors.As(err, &limited) {
		w.logger.Warn("remote api rate limited", slog.Duration("retry_after", limited.RetryAfter))
		sleep(ctx, limited.RetryAfter)
		return
	}
	w.logger.Error("compensation retry failed",
		slog.String("order", entry.Key),
		slog.Int("attempt", entry.Attempts+1),
		slog.String("error", err.Error()),
	)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
