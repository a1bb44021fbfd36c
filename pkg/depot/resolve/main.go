package resolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
)

// whatever has to forget the current tree when resolution fails. a
// failed resolution only invalidates the generation it started in, so
// a tree bound in the meantime survives a late failure.
type Invalidator interface {
	Generation() uint64
	InvalidateGeneration(generation uint64) bool
}

type Resolver struct {
	fetcher store.ObjectFetcher
	cache Invalidator
	// when set, a name matching no branch is an error instead of
	// falling back to the first branch.
	Strict bool
}

type Resolution struct {
	Branch model.Branch `json:"branch"`
	Commit *model.Commit `json:"commit"`
	// true when the requested name matched nothing and the first
	// branch was used instead.
	FellBack bool `json:"fellBack"`
}

func NewResolver(fetcher store.ObjectFetcher, cache Invalidator) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache: cache,
	}
}

// an exact match wins; otherwise the first branch whose name contains
// the requested one. the exact match is taken even when a longer name
// containing it comes earlier in the list, so "main" picks "main" out
// of ["main-old", "main"].
func MatchBranch(name string, branches []model.Branch) (model.Branch, bool) {
	if s, err := url.PathUnescape(name); err == nil { name = s }
	for _, b := range branches {
		if b.Name == name { return b, true }
	}
	for _, b := range branches {
		if strings.Contains(b.Name, name) { return b, true }
	}
	return model.Branch{}, false
}

func (r *Resolver) fail(generation uint64, err error) (*Resolution, error) {
	if r.cache != nil { r.cache.InvalidateGeneration(generation) }
	return nil, err
}

func (r *Resolver) Resolve(ctx context.Context, branchName string, branches []model.Branch) (*Resolution, error) {
	generation := uint64(0)
	if r.cache != nil { generation = r.cache.Generation() }
	if len(branches) <= 0 {
		return r.fail(generation, deperr.NewDepotError(deperr.NO_BRANCH, "Repository has no branch"))
	}
	b, ok := MatchBranch(branchName, branches)
	if !ok {
		if r.Strict {
			return r.fail(generation, deperr.NewDepotError(deperr.NO_BRANCH, fmt.Sprintf("Branch %s not found", branchName)))
		}
		log.INFO("branch", branchName, "not found, falling back to", branches[0].Name)
		b = branches[0]
	}
	id, err := model.ParseObjectId(string(b.CommitHash))
	if err != nil {
		return r.fail(generation, deperr.WrapDepotError(deperr.NO_COMMIT, err, fmt.Sprintf("Branch %s points at an invalid commit", b.Name)))
	}
	c, err := store.FetchCommit(ctx, r.fetcher, id)
	if err != nil {
		return r.fail(generation, deperr.WrapDepotError(deperr.NO_COMMIT, err, fmt.Sprintf("Failed to load commit %s of branch %s", id, b.Name)))
	}
	return &Resolution{
		Branch: b,
		Commit: c,
		FellBack: !ok,
	}, nil
}
