package redis_like

import (
	"context"
	"fmt"
	"time"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/gitobj"
	"github.com/redis/go-redis/v9"
)

// works with redis, keydb & valkey.
type RedisLikeObjectCache struct {
	config *depot.DepotConfig
	connection *redis.Client
}

func NewRedisLikeObjectCache(cfg *depot.DepotConfig) (*RedisLikeObjectCache, error) {
	c := redis.NewClient(&redis.Options{
		Addr: cfg.ObjectCache.Host,
		Username: cfg.ObjectCache.UserName,
		Password: cfg.ObjectCache.Password,
		DB: cfg.ObjectCache.DatabaseNumber,
	})
	return &RedisLikeObjectCache{
		config: cfg,
		connection: c,
	}, nil
}

func (c *RedisLikeObjectCache) Dispose() error {
	return c.connection.Close()
}

func (c *RedisLikeObjectCache) key(id model.ObjectId) string {
	return fmt.Sprintf("%s:obj:%s", c.config.ObjectCache.TablePrefix, id)
}

func (c *RedisLikeObjectCache) Get(ctx context.Context, id model.ObjectId) (model.Object, bool, error) {
	v, err := c.connection.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil { return nil, false, nil }
	if err != nil { return nil, false, err }
	obj, err := gitobj.Decode(id, v)
	if err != nil {
		log.WARN("dropping undecodable cache entry", id, ":", err)
		return nil, false, nil
	}
	return obj, true, nil
}

func (c *RedisLikeObjectCache) Put(ctx context.Context, obj model.Object) error {
	raw, err := gitobj.Encode(obj)
	if err != nil { return err }
	expiration := time.Duration(c.config.ObjectCache.ExpirationSecond) * time.Second
	return c.connection.Set(ctx, c.key(obj.ObjectId()), raw, expiration).Err()
}
