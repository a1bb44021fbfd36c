package navigation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/pathres"
	"github.com/bctnry/depotview/pkg/depot/refs"
	"github.com/bctnry/depotview/pkg/depot/resolve"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/depot/treecache"
)

type Request struct {
	Type pathres.RouteType
	BranchName string
	// the full url path, "/{repo}/{type}/{branch}/{path...}".
	Pathname string
	// leading part of Pathname naming the repository, e.g. "/repo1".
	// never searched for "{type}/{branch}". optional.
	Root string
}

type Options struct {
	StrictBranchMatch bool
}

// drives one browsing session over one repository. it owns the tree
// cache and decides when the cache has to be rebuilt: a different
// branch name resolves the commit again and resets the tree, a
// different path under the same branch only walks the cache.
type Coordinator struct {
	fetcher store.ObjectFetcher
	branches refs.BranchProvider
	cache *treecache.Cache
	strict bool

	mutex sync.Mutex
	token uint64
	view View
	lastRequest *Request
	resolution *resolve.Resolution
	resolvedFor string
}

func NewCoordinator(fetcher store.ObjectFetcher, branches refs.BranchProvider, opts Options) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		branches: branches,
		cache: treecache.NewCache(fetcher),
		strict: opts.StrictBranchMatch,
		view: View{State: IDLE},
	}
}

// the cache as seen by the resolution of navigation number token. it
// can only invalidate while that navigation is the current one, and
// only the generation the resolution started in.
type navigationGuard struct {
	c *Coordinator
	token uint64
	generation uint64
}

func (g navigationGuard) Generation() uint64 {
	return g.generation
}

func (g navigationGuard) InvalidateGeneration(generation uint64) bool {
	g.c.mutex.Lock()
	defer g.c.mutex.Unlock()
	if g.token != g.c.token { return false }
	return g.c.cache.InvalidateGeneration(generation)
}

func (c *Coordinator) Cache() *treecache.Cache {
	return c.cache
}

func (c *Coordinator) View() *View {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.view.clone()
}

func newStaleError(token uint64) error {
	return deperr.NewDepotError(deperr.STALE, fmt.Sprintf("Navigation %d has been superseded", token))
}

// starts navigation number token. returns the cache generation it
// starts in and the resolution to reuse, or nil when the commit has to
// be resolved first.
func (c *Coordinator) begin(req Request, route *pathres.Route, force bool) (uint64, uint64, *resolve.Resolution) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.token += 1
	r := req
	c.lastRequest = &r
	res := c.resolution
	if force || res == nil || c.resolvedFor != req.BranchName || !c.cache.Bound() {
		res = nil
		c.view.State = RESOLVING_COMMIT
	} else {
		c.view.State = LOADING_TREE
	}
	c.view.Route = route
	c.view.Loading = true
	c.view.setError(nil)
	return c.token, c.cache.Generation(), res
}

// keeps err in the view unless navigation token has been superseded.
func (c *Coordinator) fail(token uint64, err error) (*View, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if token != c.token { return nil, newStaleError(token) }
	c.view.State = ERROR
	c.view.Loading = false
	c.view.setError(err)
	return c.view.clone(), err
}

func (c *Coordinator) resolveCommit(ctx context.Context, token uint64, generation uint64, req Request) (*resolve.Resolution, error) {
	guard := navigationGuard{c: c, token: token, generation: generation}
	branches, err := c.branches.ListBranches(ctx)
	if err != nil {
		guard.InvalidateGeneration(generation)
		if !deperr.IsDepotError(err) {
			err = deperr.WrapDepotError(deperr.FETCH_FAILURE, err, "Failed to list branches")
		}
		return nil, err
	}
	resolver := resolve.NewResolver(c.fetcher, guard)
	resolver.Strict = c.strict
	res, err := resolver.Resolve(ctx, req.BranchName, branches)
	if err != nil { return nil, err }
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if token != c.token { return nil, newStaleError(token) }
	c.cache.Reset(res.Commit.TreeOid)
	c.resolution = res
	c.resolvedFor = req.BranchName
	b := res.Branch
	c.view.Branch = &b
	c.view.Commit = res.Commit
	c.view.FellBack = res.FellBack
	c.view.State = LOADING_TREE
	return res, nil
}

func (c *Coordinator) loadFile(ctx context.Context, route *pathres.Route, entries []*treecache.TreeNode) (*model.BlobContent, error) {
	name := route.FileName()
	n := treecache.Find(entries, name)
	if len(name) <= 0 || n == nil || !n.IsLeaf || n.Mode == model.TREE_SUBMODULE {
		return nil, deperr.NewDepotError(deperr.NO_FILE, fmt.Sprintf("No file %q in /%s", name, strings.Join(route.DirectorySegments(), "/")))
	}
	b, err := store.FetchBlob(ctx, c.fetcher, n.DataRef.Oid)
	if err != nil {
		if deperr.Is(err, deperr.FETCH_FAILURE) { return nil, err }
		return nil, deperr.WrapDepotError(deperr.FETCH_FAILURE, err, fmt.Sprintf("Failed to load file %s", name))
	}
	return b, nil
}

func (c *Coordinator) navigate(ctx context.Context, req Request, force bool) (*View, error) {
	route := pathres.NewRouteUnder(req.Root, req.Type, req.BranchName, req.Pathname)
	token, generation, res := c.begin(req, route, force)
	// a tree lost underneath us (a failed fetch, a stale resolution)
	// gets one more try with a fresh resolution.
	for attempt := 0; ; attempt++ {
		var err error
		if res == nil {
			res, err = c.resolveCommit(ctx, token, generation, req)
			if err != nil {
				c.mutex.Lock()
				if token == c.token { c.resolution = nil }
				c.mutex.Unlock()
				return c.fail(token, err)
			}
		}
		entries, err := c.cache.Lookup(ctx, route.DirectorySegments())
		if err != nil {
			if deperr.Is(err, deperr.STALE) && attempt < 1 && c.isCurrent(token) {
				log.INFO("tree of", req.BranchName, "was discarded, resolving again")
				res = nil
				generation = c.cache.Generation()
				continue
			}
			return c.fail(token, err)
		}
		var blob *model.BlobContent
		if route.Type == pathres.BLOB {
			blob, err = c.loadFile(ctx, route, entries)
			if err != nil { return c.fail(token, err) }
		}
		return c.finish(token, route, entries, blob)
	}
}

func (c *Coordinator) isCurrent(token uint64) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return token == c.token
}

func (c *Coordinator) finish(token uint64, route *pathres.Route, entries []*treecache.TreeNode, blob *model.BlobContent) (*View, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if token != c.token { return nil, newStaleError(token) }
	c.view.State = READY
	c.view.Loading = false
	c.view.Route = route
	c.view.Entries = entriesOf(entries)
	c.view.FileName = ""
	c.view.FileContent = nil
	c.view.Extension = ""
	c.view.Language = ""
	if blob != nil {
		name := route.FileName()
		c.view.FileName = name
		c.view.FileContent = blob.Data
		c.view.Extension = pathres.Extension(name)
		c.view.Language = pathres.Language(name)
	}
	c.view.setError(nil)
	return c.view.clone(), nil
}

// moves to a new location. results of a navigation that has been
// overtaken by a newer one are dropped with a STALE error and never
// reach the view.
func (c *Coordinator) Navigate(ctx context.Context, req Request) (*View, error) {
	return c.navigate(ctx, req, false)
}

// runs the last request again, resolving the commit from scratch.
func (c *Coordinator) Retry(ctx context.Context) (*View, error) {
	c.mutex.Lock()
	req := c.lastRequest
	c.mutex.Unlock()
	if req == nil {
		return nil, deperr.NewDepotError(deperr.NOT_FOUND, "Nothing to retry")
	}
	return c.navigate(ctx, *req, true)
}
