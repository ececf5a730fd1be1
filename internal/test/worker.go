package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// WorkerFacadeStub mimics the compensation worker's view of the application.
type WorkerFacadeStub struct {
	Batches  [][]model.PendingOrder
	DueFn    func(context.Context, int) ([]model.PendingOrder, error)
	RetryFn  func(context.Context, model.PendingOrder) error
	ExpireFn func(context.Context) int
	Retried  []model.PendingOrder

	mu          sync.Mutex
	dueCalls    int32
	expireCalls int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// DueCompensations returns batches from configured queue.
func (s *WorkerFacadeStub) DueCompensations(ctx context.Context, limit int) ([]model.PendingOrder, error) {
	if s.DueFn != nil {
		return s.DueFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.dueCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// RetryCompensation records retry requests.
func (s *WorkerFacadeStub) RetryCompensation(ctx context.Context, entry model.PendingOrder) error {
	if s.RetryFn != nil {
		if err := s.RetryFn(ctx, entry); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Retried = append(s.Retried, entry)
	return nil
}

// ExpireIdleFlows counts sweeps.
func (s *WorkerFacadeStub) ExpireIdleFlows(ctx context.Context) int {
	atomic.AddInt32(&s.expireCalls, 1)
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx)
	}
	return 0
}

// ExpireCalls returns the number of idle sweeps so far.
func (s *WorkerFacadeStub) ExpireCalls() int {
	return int(atomic.LoadInt32(&s.expireCalls))
}
