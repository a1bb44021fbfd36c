package routes

import (
	"github.com/bctnry/depotview/pkg/depot/deperr"
)

// http status for an error coming out of the depot packages.
func StatusOf(err error) int {
	switch deperr.TypeOf(err) {
	case deperr.NOT_FOUND, deperr.NO_FILE, deperr.NO_BRANCH:
		return 404
	case deperr.FETCH_FAILURE, deperr.NO_COMMIT:
		return 502
	case deperr.STALE:
		return 409
	case deperr.TYPE_MISMATCH:
		return 422
	case deperr.STORE_NOT_SUPPORTED:
		return 501
	}
	return 500
}
