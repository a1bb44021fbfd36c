package controller

import (
	"net/http"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	. "github.com/bctnry/depotview/routes"
)

type objectResponse struct {
	Id model.ObjectId `json:"id"`
	Kind string `json:"kind"`
	Size int `json:"size"`
	Entries []model.TreeEntry `json:"entries,omitempty"`
	Commit *model.Commit `json:"commit,omitempty"`
}

func summarizeObject(obj model.Object) objectResponse {
	res := objectResponse{
		Id: obj.ObjectId(),
		Kind: obj.Kind().String(),
		Size: len(obj.RawData()),
	}
	switch o := obj.(type) {
	case *model.TreeListing:
		res.Entries = o.Entries
	case *model.Commit:
		res.Commit = o
	}
	return res
}

func bindObjectController(ctx *RouterContext, mux *http.ServeMux) {
	mux.HandleFunc("GET /repo/{repoName}/object/{oid}", UseMiddleware(
		[]Middleware{Logged, RateLimit}, ctx,
		func(rc *RouterContext, w http.ResponseWriter, r *http.Request) {
			f, err := rc.ResolveRepository(r.PathValue("repoName"))
			if err != nil {
				rc.ReportError(err, w, r)
				return
			}
			id, err := model.ParseObjectId(r.PathValue("oid"))
			if err != nil {
				rc.ReportError(deperr.WrapDepotError(deperr.NOT_FOUND, err, "Invalid object id"), w, r)
				return
			}
			obj, err := f.Fetch(r.Context(), id)
			if err != nil {
				rc.ReportError(err, w, r)
				return
			}
			rc.ReportJSON(200, summarizeObject(obj), w)
		},
	))
}
