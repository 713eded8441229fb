package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// SnapshotCache implements changeset.SnapshotCache: serialized filtered
// change views keyed by "<comparison>:<filter-hash>".  Loads for the same
// key are collapsed through singleflight so one slow upstream fetch never
// fans out, and TTLs carry jitter so a busy comparison's views don't all
// expire on the same tick.
type SnapshotCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// CacheOption configures a SnapshotCache.
type CacheOption func(*SnapshotCache)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *SnapshotCache) { c.prefix = prefix }
}

// WithTTL overrides the entry TTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *SnapshotCache) { c.ttl = ttl }
}

// NewSnapshotCache constructs a SnapshotCache over client.  Prefix and TTL
// default from the client's config.
func NewSnapshotCache(client *Client, log logging.Logger, opts ...CacheOption) *SnapshotCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &SnapshotCache{
		client: client,
		logger: log.Named("snapshot-cache"),
		prefix: client.cfg.KeyPrefix + "changes:",
		ttl:    client.cfg.DefaultTTL,
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SnapshotCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expiry +/- 10% around the configured TTL.
func (c *SnapshotCache) jitterTTL() time.Duration {
	jitter := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(jitter)
}

// GetOrSet returns the cached bytes for key, or runs load once (across
// concurrent callers) and stores the result.  A redis outage falls through
// to load: the cache never takes the listing down with it.
func (c *SnapshotCache) GetOrSet(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	full := c.fullKey(key)

	data, err := c.client.rdb.Get(ctx, full).Bytes()
	if err == nil {
		return data, nil
	}
	if err != redis.Nil {
		c.logger.Warn("cache read failed, loading directly",
			logging.String("key", full), logging.Err(err))
		return load(ctx)
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		b, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.client.rdb.Set(ctx, full, b, c.jitterTTL()).Err(); setErr != nil {
			c.logger.Warn("cache write failed",
				logging.String("key", full), logging.Err(setErr))
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// Invalidate drops every cached view for a comparison by scanning the
// comparison's key prefix.
func (c *SnapshotCache) Invalidate(ctx context.Context, comparisonID common.ID) error {
	match := c.fullKey(string(comparisonID)) + ":*"
	var cursor uint64
	for {
		keys, next, err := c.client.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
