package store

import (
	"context"

	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
)

// a cache in front of a fetcher. objects never change once written,
// so entries are only ever added.
type ObjectCache interface {
	Get(ctx context.Context, id model.ObjectId) (model.Object, bool, error)
	Put(ctx context.Context, obj model.Object) error
}

type CachedFetcher struct {
	Inner ObjectFetcher
	Cache ObjectCache
}

func NewCachedFetcher(inner ObjectFetcher, cache ObjectCache) *CachedFetcher {
	return &CachedFetcher{
		Inner: inner,
		Cache: cache,
	}
}

// a broken cache degrades to a miss; it never fails the fetch.
func (cf *CachedFetcher) Fetch(ctx context.Context, id model.ObjectId) (model.Object, error) {
	obj, ok, err := cf.Cache.Get(ctx, id)
	if err != nil {
		log.WARN("object cache read failed for", id, ":", err)
	} else if ok {
		return obj, nil
	}
	obj, err = cf.Inner.Fetch(ctx, id)
	if err != nil { return nil, err }
	err = cf.Cache.Put(ctx, obj)
	if err != nil {
		log.WARN("object cache write failed for", id, ":", err)
	}
	return obj, nil
}
