package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

const keyPrefix = "movewise:session:"

// Hash fields of a stored session.
const (
	fieldUser      = "currentUser"
	fieldToken     = "userToken"
	fieldAdmin     = "isAdmin"
	fieldCreatedAt = "createdAt"
)

type redisClient interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Store keeps user sessions in Redis hashes with a sliding TTL.
type Store struct {
	rdb redisClient
	ttl time.Duration
}

// NewStore constructs Store.
func NewStore(rdb redisClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(id string) string { return keyPrefix + id }

// Create persists session under a fresh id.
func (s *Store) Create(ctx context.Context, session model.Session) (*model.Session, error) {
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now().UTC()

	key := s.key(session.ID)
	err := s.rdb.HSet(ctx, key,
		fieldUser, session.User,
		fieldToken, session.Token,
		fieldAdmin, strconv.FormatBool(session.IsAdmin),
		fieldCreatedAt, session.CreatedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		_ = s.rdb.Del(ctx, key).Err()
		return nil, fmt.Errorf("expire session: %w", err)
	}
	return &session, nil
}

// Get loads a session and extends its lifetime.
func (s *Store) Get(ctx context.Context, id string) (*model.Session, error) {
	key := s.key(id)
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domainErrors.ErrNotFound
	}

	isAdmin, _ := strconv.ParseBool(fields[fieldAdmin])
	createdAt, _ := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	_ = s.rdb.Expire(ctx, key, s.ttl).Err()

	return &model.Session{
		ID:        id,
		User:      fields[fieldUser],
		Token:     fields[fieldToken],
		IsAdmin:   isAdmin,
		CreatedAt: createdAt,
	}, nil
}

// Delete drops a session; deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
