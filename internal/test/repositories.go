package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
)

var errNotFound = domainErrors.ErrNotFound

// PendingOrderRepositoryStub keeps the pending ledger in memory.
type PendingOrderRepositoryStub struct {
	Err error

	mu   sync.Mutex
	rows map[string]model.PendingOrder
}

// NewPendingOrderRepositoryStub constructs an empty ledger.
func NewPendingOrderRepositoryStub() *PendingOrderRepositoryStub {
	return &PendingOrderRepositoryStub{rows: map[string]model.PendingOrder{}}
}

// Record inserts or replaces a row.
func (s *PendingOrderRepositoryStub) Record(ctx context.Context, order model.PendingOrder) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]model.PendingOrder{}
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	s.rows[order.Key] = order
	return nil
}

// Get fetches a row by key.
func (s *PendingOrderRepositoryStub) Get(ctx context.Context, key string) (*model.PendingOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &row, nil
}

// UpdateState changes the state of an existing row.
func (s *PendingOrderRepositoryStub) UpdateState(ctx context.Context, key string, state model.PendingState, lastError string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok {
		return domainErrors.ErrNotFound
	}
	row.State = state
	row.LastError = lastError
	row.UpdatedAt = time.Now()
	s.rows[key] = row
	return nil
}

// ScheduleRetry queues a compensation attempt.
func (s *PendingOrderRepositoryStub) ScheduleRetry(ctx context.Context, key, lastError string, next time.Time) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok {
		return domainErrors.ErrNotFound
	}
	row.State = model.PendingStateCompensating
	row.Attempts++
	row.LastError = lastError
	row.NextAttemptAt = next
	row.UpdatedAt = time.Now()
	s.rows[key] = row
	return nil
}

// SelectDueCompensations returns due rows and leases them until now+lease.
func (s *PendingOrderRepositoryStub) SelectDueCompensations(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]model.PendingOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []model.PendingOrder
	for _, row := range s.rows {
		if row.State == model.PendingStateCompensating && !row.NextAttemptAt.After(now) {
			due = append(due, row)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, row := range due {
		row.NextAttemptAt = now.Add(lease)
		s.rows[row.Key] = row
	}
	return due, nil
}

// State returns the state of key, or "" when absent.
func (s *PendingOrderRepositoryStub) State(key string) model.PendingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[key].State
}

// RepositoryFactoryStub hands out the configured repositories.
type RepositoryFactoryStub struct {
	Pending repository.PendingOrderRepository
}

// PendingOrders returns the configured ledger or a fresh in-memory one.
func (f *RepositoryFactoryStub) PendingOrders() repository.PendingOrderRepository {
	if f.Pending == nil {
		f.Pending = NewPendingOrderRepositoryStub()
	}
	return f.Pending
}

// SessionStoreStub keeps sessions in memory.
type SessionStoreStub struct {
	Err error

	mu       sync.Mutex
	next     int
	sessions map[string]model.Session
}

// Create stores session under "session-<n>".
func (s *SessionStoreStub) Create(ctx context.Context, session model.Session) (*model.Session, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = map[string]model.Session{}
	}
	s.next++
	session.ID = "session-" + RandomDigits(4) + "-" + itoa(s.next)
	session.CreatedAt = time.Now()
	s.sessions[session.ID] = session
	return &session, nil
}

// Get fetches a session.
func (s *SessionStoreStub) Get(ctx context.Context, id string) (*model.Session, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &session, nil
}

// Delete drops a session.
func (s *SessionStoreStub) Delete(ctx context.Context, id string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

var _ repository.PendingOrderRepository = (*PendingOrderRepositoryStub)(nil)
var _ repository.Factory = (*RepositoryFactoryStub)(nil)
