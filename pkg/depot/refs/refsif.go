package refs

import (
	"context"
	"sort"

	"github.com/bctnry/depotview/pkg/depot/model"
)

// the ordered list of branches of one repository. the first branch is
// the one used when a requested name matches nothing.
type BranchProvider interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
}

type BranchProviderFunc func(ctx context.Context) ([]model.Branch, error)

func (f BranchProviderFunc) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return f(ctx)
}

// a fixed list. mostly for tests.
type StaticBranchProvider []model.Branch

func (s StaticBranchProvider) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return []model.Branch(s), nil
}

// where the branches of every served repository are kept.
type BranchRegistry interface {
	IsRegistryUsable() (bool, error)
	Install() error
	ListRepositoryBranches(ctx context.Context, repoName string) ([]model.Branch, error)
	RegisterBranch(ctx context.Context, repoName string, b model.Branch) error
	Dispose() error
}

type repositoryBranchProvider struct {
	registry BranchRegistry
	repoName string
}

func (p *repositoryBranchProvider) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return p.registry.ListRepositoryBranches(ctx, p.repoName)
}

func ForRepository(r BranchRegistry, repoName string) BranchProvider {
	return &repositoryBranchProvider{
		registry: r,
		repoName: repoName,
	}
}

// puts the branch named headName first and sorts the rest by name.
func OrderBranches(l []model.Branch, headName string) []model.Branch {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Name == headName { return l[j].Name != headName }
		if l[j].Name == headName { return false }
		return l[i].Name < l[j].Name
	})
	return l
}
