package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/probin-johori/sustainable/internal/domain"
)

// ErrSnapshotMissing is returned by a SnapshotStore that holds no value for
// the key.
var ErrSnapshotMissing = errors.New("snapshot missing")

// SnapshotStore keeps the last good load of a source.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const snapshotKeyPrefix = "catalog:snapshot:"

// Cached wraps a Loader, saving every successful load and serving the saved
// snapshot when the wrapped loader fails.
type Cached struct {
	loader Loader
	store  SnapshotStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached creates a Cached loader. A ttl of zero keeps snapshots forever.
func NewCached(loader Loader, store SnapshotStore, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{loader: loader, store: store, ttl: ttl, logger: logger}
}

// Name returns the wrapped loader's name.
func (c *Cached) Name() string { return c.loader.Name() }

func (c *Cached) key() string { return snapshotKeyPrefix + c.loader.Name() }

// Load runs the wrapped loader. On success the result is stored as the new
// snapshot; on failure the last snapshot is returned if there is one.
func (c *Cached) Load(ctx context.Context) ([]domain.Brand, error) {
	brands, err := c.loader.Load(ctx)
	if err == nil {
		c.save(ctx, brands)
		return brands, nil
	}

	data, getErr := c.store.Get(ctx, c.key())
	if getErr != nil {
		if !errors.Is(getErr, ErrSnapshotMissing) {
			c.logger.WarnContext(ctx, "failed to read brand snapshot",
				slog.String("source", c.Name()),
				slog.String("error", getErr.Error()),
			)
		}
		return nil, err
	}

	var snapshot []domain.Brand
	if decErr := json.Unmarshal(data, &snapshot); decErr != nil {
		c.logger.WarnContext(ctx, "discarding unreadable brand snapshot",
			slog.String("source", c.Name()),
			slog.String("error", decErr.Error()),
		)
		return nil, err
	}

	c.logger.WarnContext(ctx, "source failed, serving last snapshot",
		slog.String("source", c.Name()),
		slog.Int("count", len(snapshot)),
		slog.String("error", err.Error()),
	)
	return snapshot, nil
}

func (c *Cached) save(ctx context.Context, brands []domain.Brand) {
	data, err := json.Marshal(brands)
	if err == nil {
		err = c.store.Set(ctx, c.key(), data, c.ttl)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "failed to store brand snapshot",
			slog.String("source", c.Name()),
			slog.String("error", err.Error()),
		)
	}
}

// RedisSnapshots is a SnapshotStore backed by Redis.
type RedisSnapshots struct {
	client redis.Cmdable
}

// NewRedisSnapshots creates a Redis-backed SnapshotStore.
func NewRedisSnapshots(client redis.Cmdable) *RedisSnapshots {
	return &RedisSnapshots{client: client}
}

// Get returns the stored snapshot or ErrSnapshotMissing.
func (r *RedisSnapshots) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotMissing
		}
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	return data, nil
}

// Set stores a snapshot.
func (r *RedisSnapshots) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}
