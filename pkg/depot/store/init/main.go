package init

import (
	"fmt"
	"os"
	"path"
	"slices"
	"sort"
	"sync"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/depot/store/in_memory"
	"github.com/bctnry/depotview/pkg/depot/store/ipfs"
	"github.com/bctnry/depotview/pkg/depot/store/loose"
	"github.com/bctnry/depotview/pkg/depot/store/memcached"
	"github.com/bctnry/depotview/pkg/depot/store/redis_like"
	"github.com/bctnry/depotview/pkg/depot/store/sqlite"
)

// returns nil with no error when caching is turned off.
func InitializeObjectCache(cfg *depot.DepotConfig) (store.ObjectCache, error) {
	switch cfg.ObjectCache.Type {
	case "", "none": return nil, nil
	case "memory": return in_memory.NewInMemoryStore(), nil
	case "sqlite": return sqlite.NewSqliteObjectCache(cfg)
	case "memcached": return memcached.NewMemcachedObjectCache(cfg)
	case "redis": fallthrough
	case "keydb": fallthrough
	case "valkey":
		return redis_like.NewRedisLikeObjectCache(cfg)
	}
	return nil, deperr.NewDepotError(deperr.STORE_NOT_SUPPORTED, fmt.Sprintf("Object cache type %q not supported", cfg.ObjectCache.Type))
}

// objects are content-addressed, so every repository can share one
// gateway connection and one memory store.
var sharedMutex sync.Mutex
var sharedFetcher = make(map[string]store.ObjectFetcher, 0)

func shared(key string, mk func() (store.ObjectFetcher, error)) (store.ObjectFetcher, error) {
	sharedMutex.Lock()
	defer sharedMutex.Unlock()
	f, ok := sharedFetcher[key]
	if ok { return f, nil }
	f, err := mk()
	if err != nil { return nil, err }
	sharedFetcher[key] = f
	return f, nil
}

func InitializeFetcher(cfg *depot.DepotConfig, repoName string, cache store.ObjectCache) (store.ObjectFetcher, error) {
	var f store.ObjectFetcher
	var err error
	switch cfg.Store.Type {
	case "loose":
		p, ok := loose.FindGitDirectory(path.Join(cfg.ProperGitRoot(), repoName))
		if !ok {
			return nil, deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf("Repository %s not found", repoName))
		}
		f, err = loose.NewLooseStore(p)
	case "ipfs":
		f, err = shared(cfg.ProperRPCHost(), func() (store.ObjectFetcher, error) {
			return ipfs.NewIPFSStore(cfg)
		})
	case "memory":
		f, err = shared("memory", func() (store.ObjectFetcher, error) {
			return in_memory.NewInMemoryStore(), nil
		})
	default:
		return nil, deperr.NewDepotError(deperr.STORE_NOT_SUPPORTED, fmt.Sprintf("Store type %q not supported", cfg.Store.Type))
	}
	if err != nil { return nil, err }
	if cache == nil { return f, nil }
	return store.NewCachedFetcher(f, cache), nil
}

// names of the repositories this instance serves. with a loose store
// every git directory directly under GitRoot counts.
func ListRepositories(cfg *depot.DepotConfig) ([]string, error) {
	if cfg.Store.Type != "loose" {
		res := slices.Clone(cfg.Repositories)
		sort.Strings(res)
		return res, nil
	}
	l, err := os.ReadDir(cfg.ProperGitRoot())
	if err != nil { return nil, err }
	res := make([]string, 0)
	for _, item := range l {
		if !item.IsDir() { continue }
		if slices.Contains(cfg.IgnoreRepository, item.Name()) { continue }
		_, ok := loose.FindGitDirectory(path.Join(cfg.ProperGitRoot(), item.Name()))
		if !ok { continue }
		res = append(res, item.Name())
	}
	return res, nil
}
