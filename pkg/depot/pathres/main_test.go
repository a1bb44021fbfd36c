package pathres

import (
	"slices"
	"testing"

	"github.com/bctnry/depotview/pkg/depot/deperr"
)

func TestSplitURL(t *testing.T) {
	tests := []struct {
		name string
		prefix string
		pathname string
		wantBase string
		wantParams []string
	}{
		{"nested file", "tree/main", "/repo1/tree/main/src/lib/index.ts", "/repo1/tree/main", []string{"src", "lib", "index.ts"}},
		{"root", "tree/main", "/repo1/tree/main", "/repo1/tree/main", []string{}},
		{"trailing slash", "tree/main", "/repo1/tree/main/src/", "/repo1/tree/main", []string{"src"}},
		{"branch with slash", "blob/feature/login", "/r/blob/feature/login/a/b.go", "/r/blob/feature/login", []string{"a", "b.go"}},
		{"doubled slashes", "tree/main", "/repo1//tree/main//src", "/repo1/tree/main", []string{"src"}},
		{"prefix absent", "tree/dev", "/repo1/tree/main/src/", "/repo1/tree/main/src", []string{}},
		{"partial segment", "tree/main", "/repo1/tree/mainline/src", "/repo1/tree/mainline/src", []string{}},
		{"first occurrence", "tree/main", "/tree/main/tree/main/x", "/tree/main", []string{"tree", "main", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, params := SplitURL(tt.prefix, tt.pathname)
			if base != tt.wantBase {
				t.Errorf("expected base %q, got %q", tt.wantBase, base)
			}
			if !slices.Equal(params, tt.wantParams) {
				t.Errorf("expected params %v, got %v", tt.wantParams, params)
			}
		})
	}
}

func TestSplitURLUnder(t *testing.T) {
	tests := []struct {
		name string
		root string
		pathname string
		wantBase string
		wantParams []string
	}{
		{"repository named like the route", "/tree", "/tree/tree/tree/src", "/tree/tree/tree", []string{"src"}},
		{"nested root", "/repo/tree", "/repo/tree/tree/tree/a/b", "/repo/tree/tree/tree", []string{"a", "b"}},
		{"root not leading", "/other", "/tree/tree/tree/src", "/tree/tree", []string{"tree", "src"}},
		{"empty root", "", "/tree/tree/tree/src", "/tree/tree", []string{"tree", "src"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, params := SplitURLUnder(tt.root, "tree/tree", tt.pathname)
			if base != tt.wantBase {
				t.Errorf("expected base %q, got %q", tt.wantBase, base)
			}
			if !slices.Equal(params, tt.wantParams) {
				t.Errorf("expected params %v, got %v", tt.wantParams, params)
			}
		})
	}

	r := NewRouteUnder("/blob", BLOB, "blob", "/blob/blob/blob/x.go")
	if len(r.DirectorySegments()) != 0 || r.FileName() != "x.go" {
		t.Errorf("unexpected route %v %q", r.DirectorySegments(), r.FileName())
	}
}

func TestRouteSegments(t *testing.T) {
	r := NewRoute(BLOB, "main", "/repo1/blob/main/src/lib/index.ts")
	if !slices.Equal(r.DirectorySegments(), []string{"src", "lib"}) {
		t.Errorf("unexpected directory segments %v", r.DirectorySegments())
	}
	if r.FileName() != "index.ts" {
		t.Errorf("unexpected file name %q", r.FileName())
	}

	r = NewRoute(TREE, "main", "/repo1/tree/main/src/lib")
	if !slices.Equal(r.DirectorySegments(), []string{"src", "lib"}) {
		t.Errorf("unexpected directory segments %v", r.DirectorySegments())
	}
	if r.FileName() != "" {
		t.Errorf("tree route should have no file name, got %q", r.FileName())
	}

	r = NewRoute(BLOB, "main", "/repo1/blob/main")
	if len(r.DirectorySegments()) != 0 || r.FileName() != "" {
		t.Errorf("expected empty blob route, got %v %q", r.DirectorySegments(), r.FileName())
	}
}

func TestParseRouteType(t *testing.T) {
	if rt, err := ParseRouteType("tree"); err != nil || rt != TREE {
		t.Errorf("expected tree, got %v %v", rt, err)
	}
	if rt, err := ParseRouteType("blob"); err != nil || rt != BLOB {
		t.Errorf("expected blob, got %v %v", rt, err)
	}
	_, err := ParseRouteType("commit")
	if !deperr.Is(err, deperr.NOT_FOUND) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"index.ts": "ts",
		"archive.tar.gz": "gz",
		"Makefile": "Makefile",
		".gitignore": "gitignore",
	}
	for name, want := range tests {
		if got := Extension(name); got != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestLanguage(t *testing.T) {
	if got := Language("main.go"); got != "Go" {
		t.Errorf("expected Go, got %q", got)
	}
	if got := Language("no-such-kind.zzzq"); got != "" {
		t.Errorf("expected no language, got %q", got)
	}
}
