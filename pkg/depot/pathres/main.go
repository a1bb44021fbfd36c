package pathres

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/bctnry/depotview/pkg/depot/deperr"
)

type RouteType string

const (
	TREE RouteType = "tree"
	BLOB RouteType = "blob"
)

func ParseRouteType(s string) (RouteType, error) {
	switch s {
	case "tree": return TREE, nil
	case "blob": return BLOB, nil
	}
	return "", deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf("Unknown route type %q", s))
}

// a url path split around "{type}/{branchName}".
type Route struct {
	Type RouteType `json:"type"`
	BranchName string `json:"branch"`
	BaseUrl string `json:"baseUrl"`
	Params []string `json:"params"`
}

func splitSegments(s string) []string {
	res := make([]string, 0)
	for k := range strings.SplitSeq(s, "/") {
		if len(k) <= 0 { continue }
		res = append(res, k)
	}
	return res
}

// finds the first place where prefix occurs as a whole run of path
// segments. branch names may contain "/", so the prefix can span
// several segments.
func SplitURL(prefix string, pathname string) (string, []string) {
	return SplitURLUnder("", prefix, pathname)
}

// like SplitURL, but when pathname starts with the segments of root the
// search for prefix begins after them. with root "/tree" a repository
// named "tree" is not mistaken for the route type.
func SplitURLUnder(root string, prefix string, pathname string) (string, []string) {
	trimmed := strings.TrimSuffix(pathname, "/")
	p := splitSegments(prefix)
	s := splitSegments(pathname)
	if len(p) <= 0 { return trimmed, []string{} }
	start := 0
	if r := splitSegments(root); len(r) <= len(s) && slices.Equal(s[:len(r)], r) {
		start = len(r)
	}
	for i := start; i + len(p) <= len(s); i++ {
		matched := true
		for j := range p {
			if s[i+j] != p[j] { matched = false; break }
		}
		if !matched { continue }
		base := "/" + strings.Join(s[:i+len(p)], "/")
		params := make([]string, 0, len(s) - i - len(p))
		params = append(params, s[i+len(p):]...)
		return base, params
	}
	return trimmed, []string{}
}

func NewRoute(t RouteType, branchName string, pathname string) *Route {
	return NewRouteUnder("", t, branchName, pathname)
}

func NewRouteUnder(root string, t RouteType, branchName string, pathname string) *Route {
	base, params := SplitURLUnder(root, string(t) + "/" + branchName, pathname)
	return &Route{
		Type: t,
		BranchName: branchName,
		BaseUrl: base,
		Params: params,
	}
}

// the directory part of the route. for a blob route the last param is
// the file itself.
func (r *Route) DirectorySegments() []string {
	if r.Type == BLOB {
		if len(r.Params) <= 0 { return r.Params }
		return r.Params[:len(r.Params)-1]
	}
	return r.Params
}

func (r *Route) FileName() string {
	if r.Type != BLOB || len(r.Params) <= 0 { return "" }
	return r.Params[len(r.Params)-1]
}

// the part of a file name after the last ".". a name without any "."
// is its own extension.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 { return name }
	return name[i+1:]
}

// name of the lexer chroma would pick for the file, "" if none.
func Language(name string) string {
	l := lexers.Match(name)
	if l == nil { return "" }
	return l.Config().Name
}
