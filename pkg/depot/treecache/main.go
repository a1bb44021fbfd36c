package treecache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
	"golang.org/x/sync/singleflight"
)

// the lazily loaded tree of one commit. directories are fetched the
// first time a lookup walks into them and kept until the cache is
// reset or invalidated.
//
// every reset and invalidation starts a new generation. a fetch that
// started in an older generation is never merged into the current
// tree.
type Cache struct {
	fetcher store.ObjectFetcher
	mutex sync.Mutex
	root *TreeNode
	generation uint64
	group singleflight.Group
	fetchCount atomic.Int64
	discardCount atomic.Int64
}

type Stats struct {
	Fetches int64 `json:"fetches"`
	DiscardedMerges int64 `json:"discardedMerges"`
}

func NewCache(fetcher store.ObjectFetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
	}
}

// binds the cache to the root tree of a commit. whatever was loaded
// before is dropped, even if rootOid is the same.
func (c *Cache) Reset(rootOid model.ObjectId) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.generation += 1
	c.root = &TreeNode{
		Title: "",
		IsLeaf: false,
		DataRef: DataRef{Oid: rootOid},
		Mode: model.TREE_TREE_OBJECT,
	}
}

func (c *Cache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.generation += 1
	c.root = nil
}

// invalidates only if generation is still the current one. a tree
// bound after generation was taken is left alone.
func (c *Cache) InvalidateGeneration(generation uint64) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.generation != generation { return false }
	c.generation += 1
	c.root = nil
	return true
}

func (c *Cache) Generation() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.generation
}

// oid of the bound root tree, "" when nothing is bound.
func (c *Cache) RootOid() model.ObjectId {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.root == nil { return "" }
	return c.root.DataRef.Oid
}

func (c *Cache) Bound() bool {
	return c.RootOid() != ""
}

func (c *Cache) Stats() Stats {
	return Stats{
		Fetches: c.fetchCount.Load(),
		DiscardedMerges: c.discardCount.Load(),
	}
}

func newStaleError(generation uint64) error {
	return deperr.NewDepotError(deperr.STALE, fmt.Sprintf("Tree generation %d has been superseded", generation))
}

// the caller went away; the tree itself is fine and stays bound.
func newCancelledError(oid model.ObjectId, err error) error {
	return deperr.WrapDepotError(deperr.FETCH_FAILURE, err, fmt.Sprintf("Loading tree %s was cancelled", oid))
}

// sets the children of a directory node. a node that is already
// loaded keeps its first children.
func (c *Cache) Merge(node *TreeNode, children []*TreeNode, generation uint64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if generation != c.generation {
		c.discardCount.Add(1)
		return newStaleError(generation)
	}
	if node.IsLeaf {
		return deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf("%s is not a directory", node.Title))
	}
	if node.loaded { return nil }
	if children == nil { children = make([]*TreeNode, 0) }
	node.Children = children
	node.loaded = true
	return nil
}

func (c *Cache) loadedChildren(node *TreeNode) ([]*TreeNode, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return node.Children, node.loaded
}

func (c *Cache) ensureLoaded(ctx context.Context, node *TreeNode, generation uint64) ([]*TreeNode, error) {
	if ch, ok := c.loadedChildren(node); ok { return ch, nil }
	oid := node.DataRef.Oid
	if err := ctx.Err(); err != nil { return nil, newCancelledError(oid, err) }
	// identical subtrees share one fetch; each node still gets its own
	// children. the fetch outlives any single caller giving up on it.
	flight := c.group.DoChan(fmt.Sprintf("%d:%s", generation, oid), func() (any, error) {
		c.fetchCount.Add(1)
		return store.FetchTree(context.WithoutCancel(ctx), c.fetcher, oid)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, newCancelledError(oid, ctx.Err())
	case res = <-flight:
	}
	if res.Err != nil {
		if !c.InvalidateGeneration(generation) { return nil, newStaleError(generation) }
		return nil, deperr.WrapDepotError(deperr.FETCH_FAILURE, res.Err, fmt.Sprintf("Failed to load tree %s", oid))
	}
	err := c.Merge(node, NewNodeList(res.Val.(*model.TreeListing)), generation)
	if err != nil { return nil, err }
	ch, _ := c.loadedChildren(node)
	return ch, nil
}

// walks path from the root, fetching every directory on the way that
// is not loaded yet, and returns the children of the last directory.
// "" and "." segments are skipped.
func (c *Cache) Lookup(ctx context.Context, path []string) ([]*TreeNode, error) {
	c.mutex.Lock()
	node := c.root
	generation := c.generation
	c.mutex.Unlock()
	if node == nil {
		return nil, deperr.NewDepotError(deperr.STALE, "No tree is bound to the cache")
	}
	resolved := make([]string, 0, len(path))
	for _, seg := range path {
		if seg == "" || seg == "." { continue }
		children, err := c.ensureLoaded(ctx, node, generation)
		if err != nil { return nil, err }
		child := Find(children, seg)
		if child == nil || child.IsLeaf {
			return nil, deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf(
				"Directory %q not found under /%s", seg, strings.Join(resolved, "/"),
			))
		}
		node = child
		resolved = append(resolved, seg)
	}
	return c.ensureLoaded(ctx, node, generation)
}
