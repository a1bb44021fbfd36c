package sqlite

import (
	"context"
	"path"
	"testing"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/refs"
)

func newRegistry(t *testing.T) *SqliteBranchRegistry {
	t.Helper()
	cfg := depot.DefaultConfig()
	cfg.FilePath = path.Join(t.TempDir(), "depotview.json")
	cfg.Refs.Type = "sqlite"
	cfg.Refs.Path = "refs.db"
	if err := cfg.RecalculateProperPath(); err != nil {
		t.Fatal(err)
	}
	r, err := NewSqliteBranchRegistry(cfg)
	if err != nil {
		t.Fatalf("NewSqliteBranchRegistry failed: %v", err)
	}
	t.Cleanup(func() { r.Dispose() })
	return r
}

func TestSqliteBranchRegistryInstall(t *testing.T) {
	r := newRegistry(t)
	ok, err := r.IsRegistryUsable()
	if err != nil || ok {
		t.Fatalf("expected unusable registry before install, got %v %v", ok, err)
	}
	if err := r.Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	ok, err = r.IsRegistryUsable()
	if err != nil || !ok {
		t.Errorf("expected usable registry after install, got %v %v", ok, err)
	}
}

func TestSqliteBranchRegistryOrder(t *testing.T) {
	r := newRegistry(t)
	if err := r.Install(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	reg := []struct {
		repo string
		b model.Branch
	}{
		{"repo1", model.Branch{Name: "main", CommitHash: "1111111111111111111111111111111111111111"}},
		{"repo1", model.Branch{Name: "dev", CommitHash: "2222222222222222222222222222222222222222"}},
		{"repo2", model.Branch{Name: "trunk", CommitHash: "3333333333333333333333333333333333333333"}},
		{"repo1", model.Branch{Name: "main", CommitHash: "4444444444444444444444444444444444444444"}},
	}
	for _, item := range reg {
		if err := r.RegisterBranch(ctx, item.repo, item.b); err != nil {
			t.Fatalf("RegisterBranch failed: %v", err)
		}
	}

	l, err := refs.ForRepository(r, "repo1").ListBranches(ctx)
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("expected 2 branches, got %v", l)
	}
	if l[0].Name != "main" || l[0].CommitHash != "4444444444444444444444444444444444444444" {
		t.Errorf("expected moved main first, got %v", l[0])
	}
	if l[1].Name != "dev" {
		t.Errorf("expected dev second, got %v", l[1])
	}

	l, err = r.ListRepositoryBranches(ctx, "nothing")
	if err != nil || len(l) != 0 {
		t.Errorf("expected empty list, got %v %v", l, err)
	}
}
