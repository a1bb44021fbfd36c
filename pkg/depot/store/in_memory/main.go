package in_memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
)

// a map of objects. serves both as a store and as an object cache.
type InMemoryStore struct {
	mutex sync.RWMutex
	objects map[model.ObjectId]model.Object
	fetchCount atomic.Int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[model.ObjectId]model.Object, 0),
	}
}

func (s *InMemoryStore) Add(objs ...model.Object) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, obj := range objs {
		s.objects[obj.ObjectId()] = obj
	}
}

func (s *InMemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.objects)
}

// number of Fetch calls so far, hits and misses alike.
func (s *InMemoryStore) FetchCount() int64 {
	return s.fetchCount.Load()
}

func (s *InMemoryStore) Fetch(ctx context.Context, id model.ObjectId) (model.Object, error) {
	s.fetchCount.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, deperr.WrapDepotError(deperr.FETCH_FAILURE, err, "Fetch cancelled")
	}
	s.mutex.RLock()
	obj, ok := s.objects[id]
	s.mutex.RUnlock()
	if !ok { return nil, store.NewNotFoundError(id) }
	return obj, nil
}

func (s *InMemoryStore) Get(ctx context.Context, id model.ObjectId) (model.Object, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	obj, ok := s.objects[id]
	return obj, ok, nil
}

func (s *InMemoryStore) Put(ctx context.Context, obj model.Object) error {
	s.Add(obj)
	return nil
}
