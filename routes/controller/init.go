package controller

import (
	"net/http"

	"github.com/bctnry/depotview/routes"
)

func InitializeRoute(context *routes.RouterContext, mux *http.ServeMux) {
	bindIndexController(context, mux)
	bindBranchController(context, mux)
	bindObjectController(context, mux)
	bindTreeHandler(context, mux)
	bindSessionController(context, mux)
}
