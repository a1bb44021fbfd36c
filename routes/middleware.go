package routes

import (
	"context"
	"log"
	"net/http"
)

// middleware...

type Middleware func(HandlerFunc)HandlerFunc;
type HandlerFunc func(*RouterContext, http.ResponseWriter, *http.Request);

func UseMiddleware(w []Middleware, ctx *RouterContext, f HandlerFunc) http.HandlerFunc {
	if len(w) <= 0 {
		return func(w http.ResponseWriter, r *http.Request) {
			f(ctx, w, r);
		}
	}
	var res HandlerFunc = w[len(w)-1](f)
	i := len(w)-2
	for i >= 0 { res = w[i](res); i -= 1; }
	return func(w http.ResponseWriter, r *http.Request) {
		res(ctx, w, r);
	}
}

var Logged Middleware = func(f HandlerFunc) HandlerFunc {
	return func(ctx *RouterContext, w http.ResponseWriter, r *http.Request) {
		log.Printf(" %s %s %s\n", ResolveMostPossibleIP(w, r), r.Method, r.URL.Path)
		f(ctx, w, r)
	}
}

var RateLimit Middleware = func(f HandlerFunc) HandlerFunc {
	return func(ctx *RouterContext, w http.ResponseWriter, r *http.Request) {
		if ctx.RateLimiter.IsIPAllowed(ResolveMostPossibleIP(w, r)) {
			f(ctx, w, r)
		} else {
			w.WriteHeader(429)
		}
	}
}

// every navigation request belongs to a session identified by a
// cookie. requests without a valid one get a new session.
var WithNavigationSession Middleware = func(f HandlerFunc) HandlerFunc {
	return func(ctx *RouterContext, w http.ResponseWriter, r *http.Request) {
		id := GetNavigationSessionId(r)
		if len(id) <= 0 {
			id = NewNavigationSessionId()
			http.SetCookie(w, &http.Cookie{
				Name: COOKIE_KEY_NAVIGATION,
				Value: id,
				Path: "/",
				MaxAge: ctx.Config.SessionTimeoutMinute * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		f(ctx, w, r.WithContext(context.WithValue(r.Context(), sessionIdKey{}, id)))
	}
}
