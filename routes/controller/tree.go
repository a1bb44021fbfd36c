package controller

import (
	"net/http"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/navigation"
	"github.com/bctnry/depotview/pkg/depot/pathres"
	. "github.com/bctnry/depotview/routes"
)

// a view that could not be completed still goes out, with the status
// of its error. a superseded navigation has no view.
func reportView(rc *RouterContext, v *navigation.View, err error, w http.ResponseWriter, r *http.Request) {
	if err != nil && (v == nil || deperr.Is(err, deperr.STALE)) {
		rc.ReportError(err, w, r)
		return
	}
	status := 200
	if err != nil { status = StatusOf(err) }
	rc.ReportJSON(status, v, w)
}

func handleNavigation(rc *RouterContext, w http.ResponseWriter, r *http.Request) {
	repoName := r.PathValue("repoName")
	f, err := rc.ResolveRepository(repoName)
	if err != nil {
		rc.ReportError(err, w, r)
		return
	}
	t, err := pathres.ParseRouteType(r.PathValue("type"))
	if err != nil {
		rc.ReportError(err, w, r)
		return
	}
	c := rc.Coordinator(NavigationSessionId(r), repoName, f)
	v, err := c.Navigate(r.Context(), navigation.Request{
		Type: t,
		BranchName: r.PathValue("branchName"),
		Pathname: r.URL.Path,
		Root: "/repo/" + repoName,
	})
	reportView(rc, v, err, w, r)
}

func bindTreeHandler(ctx *RouterContext, mux *http.ServeMux) {
	mw := []Middleware{Logged, RateLimit, WithNavigationSession}
	mux.HandleFunc("GET /repo/{repoName}/{type}/{branchName}", UseMiddleware(mw, ctx, handleNavigation))
	mux.HandleFunc("GET /repo/{repoName}/{type}/{branchName}/{path...}", UseMiddleware(mw, ctx, handleNavigation))
}
