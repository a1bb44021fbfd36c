package controller

import (
	"net/http"
	"slices"

	. "github.com/bctnry/depotview/routes"
)

type indexResponse struct {
	Repositories []string `json:"repositories"`
}

func bindIndexController(ctx *RouterContext, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", UseMiddleware(
		[]Middleware{Logged, RateLimit}, ctx,
		func(rc *RouterContext, w http.ResponseWriter, r *http.Request) {
			l := make([]string, 0, len(rc.Fetchers))
			for k := range rc.Fetchers {
				l = append(l, k)
			}
			slices.Sort(l)
			rc.ReportJSON(200, indexResponse{Repositories: l}, w)
		},
	))
}
