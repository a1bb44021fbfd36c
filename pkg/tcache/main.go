package tcache

import (
	"sync"
	"time"
)

// temporary cache.
// used to store kv pairs that expires after a set amount of time.

type tCacheVal[V any] struct {
	timer *time.Timer
	value V
}

type TCache[V any] struct {
	defaultTimeout time.Duration
	mutex sync.Mutex
	val map[string]*tCacheVal[V]
}

func NewTCache[V any](d time.Duration) *TCache[V] {
	return &TCache[V]{
		defaultTimeout: d,
		val: make(map[string]*tCacheVal[V], 0),
	}
}

// the entry of the same key registered later might already be in
// place when the timer fires, so only the entry that armed the timer
// is removed.
func (tc *TCache[V]) expire(key string, v *tCacheVal[V]) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	if tc.val[key] == v { delete(tc.val, key) }
}

// registers value under key. registering an existing key replaces the
// value and restarts its timer. d <= 0 uses the default timeout.
func (tc *TCache[V]) Register(key string, value V, d time.Duration) {
	if d <= 0 { d = tc.defaultTimeout }
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	v, ok := tc.val[key]
	if ok {
		v.value = value
		v.timer.Reset(d)
		return
	}
	v = &tCacheVal[V]{value: value}
	v.timer = time.AfterFunc(d, func() { tc.expire(key, v) })
	tc.val[key] = v
}

func (tc *TCache[V]) Get(key string) (V, bool) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	v, ok := tc.val[key]
	if !ok {
		var zero V
		return zero, false
	}
	return v.value, true
}

func (tc *TCache[V]) Delete(key string) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	v, ok := tc.val[key]
	if !ok { return }
	v.timer.Stop()
	delete(tc.val, key)
}

func (tc *TCache[V]) Len() int {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return len(tc.val)
}
