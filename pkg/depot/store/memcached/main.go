package memcached

import (
	"context"
	"fmt"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/gitobj"
	"github.com/bradfitz/gomemcache/memcache"
)

// memcached refuses values over 1MB by default. bigger objects are
// simply not cached.
const MAX_VALUE_SIZE = 1024 * 1024 - 512

type MemcachedObjectCache struct {
	config *depot.DepotConfig
	connection *memcache.Client
}

func NewMemcachedObjectCache(cfg *depot.DepotConfig) (*MemcachedObjectCache, error) {
	c := memcache.New(cfg.ObjectCache.Host)
	return &MemcachedObjectCache{
		config: cfg,
		connection: c,
	}, nil
}

func objectKey(prefix string, id model.ObjectId) string {
	return fmt.Sprintf("%s:obj:%s", prefix, id)
}

func (c *MemcachedObjectCache) Get(ctx context.Context, id model.ObjectId) (model.Object, bool, error) {
	i, err := c.connection.Get(objectKey(c.config.ObjectCache.TablePrefix, id))
	// cache miss is memcached's way of saying the key not found...
	if err == memcache.ErrCacheMiss { return nil, false, nil }
	if err != nil { return nil, false, err }
	obj, err := gitobj.Decode(id, i.Value)
	if err != nil {
		log.WARN("dropping undecodable cache entry", id, ":", err)
		return nil, false, nil
	}
	return obj, true, nil
}

func (c *MemcachedObjectCache) Put(ctx context.Context, obj model.Object) error {
	raw, err := gitobj.Encode(obj)
	if err != nil { return err }
	if len(raw) > MAX_VALUE_SIZE { return nil }
	return c.connection.Set(&memcache.Item{
		Key: objectKey(c.config.ObjectCache.TablePrefix, obj.ObjectId()),
		Value: raw,
		Flags: 0,
		Expiration: int32(c.config.ObjectCache.ExpirationSecond),
	})
}
