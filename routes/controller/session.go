package controller

import (
	"net/http"

	"github.com/bctnry/depotview/pkg/depot/treecache"
	. "github.com/bctnry/depotview/routes"
)

type sessionStatsResponse struct {
	Generation uint64 `json:"generation"`
	Stats treecache.Stats `json:"stats"`
}

func bindSessionController(ctx *RouterContext, mux *http.ServeMux) {
	mw := []Middleware{Logged, RateLimit, WithNavigationSession}

	// re-runs the session's last navigation from scratch. this is the
	// only way out of an error view.
	mux.HandleFunc("POST /repo/{repoName}/retry", UseMiddleware(mw, ctx,
		func(rc *RouterContext, w http.ResponseWriter, r *http.Request) {
			repoName := r.PathValue("repoName")
			f, err := rc.ResolveRepository(repoName)
			if err != nil {
				rc.ReportError(err, w, r)
				return
			}
			c := rc.Coordinator(NavigationSessionId(r), repoName, f)
			v, err := c.Retry(r.Context())
			reportView(rc, v, err, w, r)
		},
	))

	mux.HandleFunc("GET /repo/{repoName}/stats", UseMiddleware(mw, ctx,
		func(rc *RouterContext, w http.ResponseWriter, r *http.Request) {
			repoName := r.PathValue("repoName")
			f, err := rc.ResolveRepository(repoName)
			if err != nil {
				rc.ReportError(err, w, r)
				return
			}
			c := rc.Coordinator(NavigationSessionId(r), repoName, f)
			rc.ReportJSON(200, sessionStatsResponse{
				Generation: c.Cache().Generation(),
				Stats: c.Cache().Stats(),
			}, w)
		},
	))
}
