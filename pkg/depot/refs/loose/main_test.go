package loose

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/refs"
)

const (
	hashA = "1111111111111111111111111111111111111111"
	hashB = "2222222222222222222222222222222222222222"
	hashC = "3333333333333333333333333333333333333333"
	hashD = "4444444444444444444444444444444444444444"
)

func writeFile(t *testing.T, p string, content string) {
	t.Helper()
	if err := os.MkdirAll(path.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func makeRepo(t *testing.T, root string, name string) string {
	t.Helper()
	dir := path.Join(root, name + ".git")
	writeFile(t, path.Join(dir, "HEAD"), "ref: refs/heads/main\n")
	writeFile(t, path.Join(dir, "refs", "heads", "main"), hashA + "\n")
	writeFile(t, path.Join(dir, "refs", "heads", "feature", "login"), hashB + "\n")
	writeFile(t, path.Join(dir, "packed-refs"),
		"# pack-refs with: peeled fully-peeled sorted\n" +
		hashC + " refs/heads/archive\n" +
		hashC + " refs/heads/main\n" +
		hashD + " refs/tags/v1.0\n" +
		"^" + hashA + "\n")
	return dir
}

func TestReadBranches(t *testing.T) {
	dir := makeRepo(t, t.TempDir(), "repo")
	l, err := ReadBranches(dir)
	if err != nil {
		t.Fatalf("ReadBranches failed: %v", err)
	}
	want := []model.Branch{
		{Name: "main", CommitHash: hashA},
		{Name: "archive", CommitHash: hashC},
		{Name: "feature/login", CommitHash: hashB},
	}
	if len(l) != len(want) {
		t.Fatalf("expected %v, got %v", want, l)
	}
	for i := range want {
		if l[i] != want[i] {
			t.Errorf("branch %d: expected %v, got %v", i, want[i], l[i])
		}
	}
}

func TestReadBranchesWithoutHeadsDir(t *testing.T) {
	dir := path.Join(t.TempDir(), "empty.git")
	writeFile(t, path.Join(dir, "HEAD"), hashA + "\n")
	l, err := ReadBranches(dir)
	if err != nil {
		t.Fatalf("ReadBranches failed: %v", err)
	}
	if len(l) != 0 {
		t.Errorf("expected no branches, got %v", l)
	}
}

func TestLooseBranchRegistry(t *testing.T) {
	root := t.TempDir()
	makeRepo(t, root, "repo")
	cfg := depot.DefaultConfig()
	cfg.FilePath = path.Join(root, "depotview.json")
	cfg.GitRoot = root
	if err := cfg.RecalculateProperPath(); err != nil {
		t.Fatal(err)
	}
	r, err := NewLooseBranchRegistry(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := r.IsRegistryUsable()
	if err != nil || !ok {
		t.Fatalf("expected registry to be usable, got %v %v", ok, err)
	}

	ctx := context.Background()
	l, err := refs.ForRepository(r, "repo.git").ListBranches(ctx)
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if len(l) != 3 || l[0].Name != "main" {
		t.Errorf("unexpected branches %v", l)
	}

	_, err = r.ListRepositoryBranches(ctx, "missing")
	if !deperr.Is(err, deperr.NOT_FOUND) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	err = r.RegisterBranch(ctx, "repo.git", model.Branch{Name: "x", CommitHash: hashA})
	if !deperr.Is(err, deperr.STORE_NOT_SUPPORTED) {
		t.Errorf("expected STORE_NOT_SUPPORTED, got %v", err)
	}
}
