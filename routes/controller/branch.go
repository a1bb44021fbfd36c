package controller

import (
	"net/http"

	"github.com/bctnry/depotview/pkg/depot/model"
	. "github.com/bctnry/depotview/routes"
)

type branchListResponse struct {
	Repository string `json:"repository"`
	Branches []model.Branch `json:"branches"`
}

func bindBranchController(ctx *RouterContext, mux *http.ServeMux) {
	mux.HandleFunc("GET /repo/{repoName}/branch", UseMiddleware(
		[]Middleware{Logged, RateLimit}, ctx,
		func(rc *RouterContext, w http.ResponseWriter, r *http.Request) {
			repoName := r.PathValue("repoName")
			if _, err := rc.ResolveRepository(repoName); err != nil {
				rc.ReportError(err, w, r)
				return
			}
			l, err := rc.BranchRegistry.ListRepositoryBranches(r.Context(), repoName)
			if err != nil {
				rc.ReportError(err, w, r)
				return
			}
			rc.ReportJSON(200, branchListResponse{
				Repository: repoName,
				Branches: l,
			}, w)
		},
	))
}
