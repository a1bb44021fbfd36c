package cmd

import (
	"bytes"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/pathres"
	"github.com/bctnry/depotview/pkg/depot/store/loose"
	"github.com/bctnry/depotview/pkg/gitobj"
)

var fixedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// a bare repository with one commit on main, written as loose objects.
func makeLooseRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := path.Join(root, "repo1.git")
	for _, d := range []string{"objects", "refs/heads"} {
		if err := os.MkdirAll(path.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(path.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := loose.NewLooseStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	blob := gitobj.NewBlob([]byte("hello\n"), false)
	sub, err := gitobj.NewTree([]model.TreeEntry{{Mode: model.TREE_NORMAL_FILE, Name: "hello.txt", Id: blob.Id}}, false)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := gitobj.NewTree([]model.TreeEntry{
		{Mode: model.TREE_TREE_OBJECT, Name: "docs", Id: sub.Id},
		{Mode: model.TREE_NORMAL_FILE, Name: "README", Id: blob.Id},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	c, err := gitobj.NewCommit(tree.Id, nil, "A <a@b>", fixedTime, "initial\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, obj := range []model.Object{blob, sub, tree, c} {
		if err := s.Write(obj); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(path.Join(dir, "refs", "heads", "main"), []byte(string(c.Hash) + "\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func writeConfig(t *testing.T, gitRoot string) string {
	t.Helper()
	p := path.Join(t.TempDir(), "depotview.json")
	if err := depot.CreateConfigFile(p); err != nil {
		t.Fatal(err)
	}
	cfg, err := depot.LoadConfigFile(p)
	if err != nil {
		t.Fatal(err)
	}
	cfg.GitRoot = gitRoot
	if err := cfg.Sync(); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCliPathname(t *testing.T) {
	p := cliPathname("repo1", pathres.TREE, "main", "/src/lib")
	if p != "/repo1/tree/main/src/lib" {
		t.Errorf("unexpected pathname %q", p)
	}
}

func TestLsAndCat(t *testing.T) {
	cfgPath := writeConfig(t, makeLooseRoot(t))

	out, err := run(t, "-c", cfgPath, "ls", "repo1.git", "main")
	if err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], " docs") || !strings.HasSuffix(lines[1], " README") {
		t.Errorf("unexpected listing %q", out)
	}

	out, err = run(t, "-c", cfgPath, "cat", "repo1.git", "main", "docs/hello.txt")
	if err != nil {
		t.Fatalf("cat failed: %v", err)
	}
	if out != "hello\n" {
		t.Errorf("unexpected content %q", out)
	}

	_, err = run(t, "-c", cfgPath, "cat", "repo1.git", "main", "docs/missing.txt")
	if err == nil {
		t.Error("expected cat of a missing file to fail")
	}
}

func TestHead(t *testing.T) {
	cfgPath := writeConfig(t, makeLooseRoot(t))
	out, err := run(t, "-c", cfgPath, "head", "repo1.git", "nonexistent")
	if err != nil {
		t.Fatalf("head failed: %v", err)
	}
	for _, want := range []string{"branch main\n", "author A <a@b>\n", "date 2025-01-01T00:00:00Z (", " ago)\n", "    initial\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestInitConfigRefusesOverwrite(t *testing.T) {
	p := path.Join(t.TempDir(), "depotview.json")
	if _, err := run(t, "-c", p, "init-config"); err != nil {
		t.Fatalf("init-config failed: %v", err)
	}
	if _, err := run(t, "-c", p, "init-config"); err == nil {
		t.Error("expected init-config to refuse an existing file")
	}
}
