package db

import (
	"context"
	"errors"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/redis/go-redis/v9"
)

const (
	redisCacheTTL       = 5 * time.Minute
	redisCacheNamespace = "accounts:"
	redisCacheIndex     = "query-cache-index"
	redisInvalidateStep = 256
)

var _ caches.Cacher = (*redisCacher)(nil)

// redisCacher keeps query results under its own namespace and tracks every
// key it writes in an index set, so invalidation never scans or touches keys
// owned by other tenants of the same redis.
type redisCacher struct {
	rdb       *redis.Client
	namespace string
}

func newRedisCacher(rdb *redis.Client) *redisCacher {
	return &redisCacher{rdb: rdb, namespace: redisCacheNamespace}
}

func (c *redisCacher) key(identifier string) string {
	return c.namespace + identifier
}

func (c *redisCacher) indexKey() string {
	return c.namespace + redisCacheIndex
}

func (c *redisCacher) Get(ctx context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	res, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := q.Unmarshal(res); err != nil {
		return nil, err
	}

	return q, nil
}

func (c *redisCacher) Store(ctx context.Context, key string, val *caches.Query[any]) error {
	res, err := val.Marshal()
	if err != nil {
		return err
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key(key), res, redisCacheTTL)
		pipe.SAdd(ctx, c.indexKey(), c.key(key))
		pipe.Expire(ctx, c.indexKey(), redisCacheTTL)
		return nil
	})

	return err
}

// Invalidate drains the index set in batches. Entries stored while it runs
// land back in the index and go with the next write.
func (c *redisCacher) Invalidate(ctx context.Context) error {
	for {
		keys, err := c.rdb.SPopN(ctx, c.indexKey(), redisInvalidateStep).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		if len(keys) == 0 {
			return nil
		}

		if err := c.rdb.Unlink(ctx, keys...).Err(); err != nil {
			return err
		}
	}
}
