package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

// IdempotencyStore reserves caller-supplied idempotency keys so a retried
// booking request does not create a second shipment.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key was already
	// claimed inside the window.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a reservation early, used when the guarded operation
	// failed and a retry should be allowed through.
	Release(ctx context.Context, key string) error
	Close() error
}

type idempotencyStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewIdempotencyStore(log *logger.Logger) (IdempotencyStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_IDEMPOTENCY_PREFIX"))
	if prefix == "" {
		prefix = "booking:idem"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &idempotencyStore{
		log:    log.With("client", "IdempotencyStore"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (s *idempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s == nil || s.rdb == nil {
		return false, fmt.Errorf("idempotency store not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("idempotency key required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := s.rdb.SetNX(ctx, s.prefix+":"+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *idempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("idempotency store not initialized")
	}
	return s.rdb.Del(ctx, s.prefix+":"+strings.TrimSpace(key)).Err()
}

func (s *idempotencyStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
