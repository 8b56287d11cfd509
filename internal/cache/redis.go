package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/crush-connector/internal/config"
)

// QuotaTTL bounds how long a cached quota may be served.
const QuotaTTL = 10 * time.Minute

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// QuotaEntry is the cached view of a person's standing in the current epoch.
type QuotaEntry struct {
	NumLeft     int       `json:"num_left"`
	NumUsed     int       `json:"num_used"`
	NumAllowed  int       `json:"num_allowed"`
	NextRefresh time.Time `json:"next_refresh"`
}

// KeyForQuota generates the Redis key for a person's quota.
func (c *RedisCache) KeyForQuota(email string) string {
	return fmt.Sprintf("crush:quota:%s", email)
}

// SetQuota stores q. The entry never outlives the next refresh checkpoint.
func (c *RedisCache) SetQuota(ctx context.Context, email string, q QuotaEntry) error {
	ttl := QuotaTTL
	if until := time.Until(q.NextRefresh); until < ttl {
		if until <= 0 {
			return nil
		}
		ttl = until
	}
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.KeyForQuota(email), b, ttl).Err()
}

// GetQuota returns the cached quota; the bool is false on a cache miss.
func (c *RedisCache) GetQuota(ctx context.Context, email string) (*QuotaEntry, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForQuota(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // cache miss
	} else if err != nil {
		return nil, false, err
	}
	var q QuotaEntry
	if err := json.Unmarshal(val, &q); err != nil {
		// corrupt entry: treat as a miss and drop it
		_ = c.InvalidateQuota(ctx, email)
		return nil, false, nil
	}
	return &q, true, nil
}

// InvalidateQuota drops the cached quota for email.
func (c *RedisCache) InvalidateQuota(ctx context.Context, email string) error {
	return c.Client.Del(ctx, c.KeyForQuota(email)).Err()
}
