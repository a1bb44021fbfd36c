package routes

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/bctnry/depotview/pkg/depot"
	"golang.org/x/time/rate"
)

type RateLimiter struct {
	limiter map[string]*rate.Limiter
	mutex *sync.RWMutex
	limit rate.Limit
	cap int
}

func NewRateLimiter(cfg *depot.DepotConfig) *RateLimiter {
	limit := rate.Limit(cfg.MaxRequestInSecond)
	if cfg.MaxRequestInSecond <= 0 { limit = rate.Inf }
	burst := int(cfg.MaxRequestInSecond)
	if burst < 1 { burst = 1 }
	return &RateLimiter{
		limiter: make(map[string]*rate.Limiter, 0),
		mutex: &sync.RWMutex{},
		limit: limit,
		cap: burst,
	}
}

func ResolveMostPossibleIP(w http.ResponseWriter, r *http.Request) string {
	ip := r.Header.Get("X-Real-IP")
	netip := net.ParseIP(ip)
	if netip != nil { return netip.String() }

	ips := r.Header.Values("X-Forwarded-For")
	// one should know that this is never going to be 100% correct.
	for _, ip := range ips {
		for k := range strings.SplitSeq(ip, ",") {
			netip = net.ParseIP(strings.TrimSpace(k))
			if netip != nil { return netip.String() }
		}
	}

	h, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil { return r.RemoteAddr }
	return h
}

func (rl *RateLimiter) IsIPAllowed(s string) bool {
	rl.mutex.RLock()
	r, ok := rl.limiter[s]
	rl.mutex.RUnlock()
	if !ok {
		rl.mutex.Lock()
		r, ok = rl.limiter[s]
		if !ok {
			r = rate.NewLimiter(rl.limit, rl.cap)
			rl.limiter[s] = r
		}
		rl.mutex.Unlock()
	}
	return r.Allow()
}
