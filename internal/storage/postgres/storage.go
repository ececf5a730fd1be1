package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type pendingOrderRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PendingOrders returns the ledger of orders awaiting assignment.
func (s *Storage) PendingOrders() repository.PendingOrderRepository {
	return &pendingOrderRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pending_orders (
            key TEXT PRIMARY KEY,
            variant TEXT NOT NULL,
            flow_id TEXT NOT NULL DEFAULT '',
            state TEXT NOT NULL,
            attempts INTEGER NOT NULL DEFAULT 0,
            last_error TEXT NOT NULL DEFAULT '',
            next_attempt_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_pending_orders_due ON pending_orders(state, next_attempt_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- PendingOrderRepository implementation ---

const pendingColumns = `key, variant, flow_id, state, attempts, last_error, next_attempt_at, created_at, updated_at`

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanPending(row pgx.Row) (model.PendingOrder, error) {
	var (
		p    model.PendingOrder
		next *time.Time
	)
	if err := row.Scan(&p.Key, &p.Variant, &p.FlowID, &p.State, &p.Attempts, &p.LastError, &next, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.PendingOrder{}, err
	}
	if next != nil {
		p.NextAttemptAt = *next
	}
	return p, nil
}

func (r *pendingOrderRepository) Record(ctx context.Context, order model.PendingOrder) error {
	const query = `INSERT INTO pending_orders (key, variant, flow_id, state, attempts, last_error, next_attempt_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   ON CONFLICT (key) DO UPDATE
                   SET variant = EXCLUDED.variant,
                       flow_id = EXCLUDED.flow_id,
                       state = EXCLUDED.state,
                       attempts = EXCLUDED.attempts,
                       last_error = EXCLUDED.last_error,
                       next_attempt_at = EXCLUDED.next_attempt_at,
                       updated_at = NOW()`
	state := order.State
	if state == "" {
		state = model.PendingStateAwaiting
	}
	_, err := r.storage.pool.Exec(ctx, query, order.Key, order.Variant, order.FlowID, state, order.Attempts, order.LastError, nullableTime(order.NextAttemptAt))
	return err
}

func (r *pendingOrderRepository) Get(ctx context.Context, key string) (*model.PendingOrder, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_orders WHERE key=$1`
	p, err := scanPending(r.storage.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *pendingOrderRepository) UpdateState(ctx context.Context, key string, state model.PendingState, lastError string) error {
	const query = `UPDATE pending_orders SET state=$1, last_error=$2, updated_at=NOW() WHERE key=$3`
	tag, err := r.storage.pool.Exec(ctx, query, state, lastError, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pendingOrderRepository) ScheduleRetry(ctx context.Context, key string, lastError string, next time.Time) error {
	const query = `UPDATE pending_orders
                   SET state=$1, attempts=attempts+1, last_error=$2, next_attempt_at=$3, updated_at=NOW()
                   WHERE key=$4`
	tag, err := r.storage.pool.Exec(ctx, query, model.PendingStateCompensating, lastError, next, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// SelectDueCompensations claims up to limit rows whose retry time has passed
// and pushes their next attempt out by lease so concurrent pollers skip them.
func (r *pendingOrderRepository) SelectDueCompensations(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]model.PendingOrder, error) {
	selectQuery := `SELECT ` + pendingColumns + `
                    FROM pending_orders
                    WHERE state = $1 AND next_attempt_at <= $2
                    ORDER BY next_attempt_at
                    LIMIT $3
                    FOR UPDATE SKIP LOCKED`
	const leaseQuery = `UPDATE pending_orders SET next_attempt_at=$1, updated_at=NOW() WHERE key = ANY($2)`

	var due []model.PendingOrder
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, model.PendingStateCompensating, now, limit)
		if err != nil {
			return err
		}
		for rows.Next() {
			p, err := scanPending(rows)
			if err != nil {
				rows.Close()
				return err
			}
			due = append(due, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		keys := make([]string, len(due))
		for i, p := range due {
			keys[i] = p.Key
		}
		if _, err := tx.Exec(ctx, leaseQuery, now.Add(lease), keys); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(due) > 0 {
		r.storage.logger.Debug("claimed due compensations", slog.Int("count", len(due)))
	}
	return due, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
