package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/navigation"
	"github.com/bctnry/depotview/pkg/depot/refs"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/tcache"
)

type RouterContext struct {
	Config *depot.DepotConfig
	// repository name -> fetcher. a repository not in here is not served.
	Fetchers map[string]store.ObjectFetcher
	BranchRegistry refs.BranchRegistry
	// "{session id}:{repository name}" -> coordinator of that session.
	Sessions *tcache.TCache[*navigation.Coordinator]
	RateLimiter *RateLimiter
	sessionMutex sync.Mutex
}

func NewRouterContext(cfg *depot.DepotConfig, fetchers map[string]store.ObjectFetcher, registry refs.BranchRegistry) *RouterContext {
	timeout := time.Duration(cfg.SessionTimeoutMinute) * time.Minute
	return &RouterContext{
		Config: cfg,
		Fetchers: fetchers,
		BranchRegistry: registry,
		Sessions: tcache.NewTCache[*navigation.Coordinator](timeout),
		RateLimiter: NewRateLimiter(cfg),
	}
}

func (ctx *RouterContext) ResolveRepository(repoName string) (store.ObjectFetcher, error) {
	f, ok := ctx.Fetchers[repoName]
	if !ok {
		return nil, deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf("Repository %s not found", repoName))
	}
	return f, nil
}

// finds the coordinator of a session, creating one if needed. every
// call restarts the session's expiration timer.
func (ctx *RouterContext) Coordinator(sessionId string, repoName string, f store.ObjectFetcher) *navigation.Coordinator {
	key := sessionId + ":" + repoName
	ctx.sessionMutex.Lock()
	defer ctx.sessionMutex.Unlock()
	c, ok := ctx.Sessions.Get(key)
	if !ok {
		c = navigation.NewCoordinator(f, refs.ForRepository(ctx.BranchRegistry, repoName), navigation.Options{
			StrictBranchMatch: ctx.Config.StrictBranchMatch,
		})
	}
	ctx.Sessions.Register(key, c, 0)
	return c
}

func (ctx *RouterContext) ReportJSON(status int, v any, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	LogIfError(json.NewEncoder(w).Encode(v))
}

type ErrorResponse struct {
	ErrorType string `json:"errorType"`
	ErrorMessage string `json:"error"`
}

func (ctx *RouterContext) ReportError(err error, w http.ResponseWriter, r *http.Request) {
	ctx.ReportJSON(StatusOf(err), ErrorResponse{
		ErrorType: deperr.TypeOf(err).String(),
		ErrorMessage: err.Error(),
	}, w)
}

func (ctx *RouterContext) ReportNormalError(msg string, w http.ResponseWriter, r *http.Request) {
	ctx.ReportJSON(400, ErrorResponse{
		ErrorType: "BAD_REQUEST",
		ErrorMessage: msg,
	}, w)
}
