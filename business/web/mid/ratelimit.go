package mid

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/dapp/business/web/errs"
	"github.com/ardanlabs/dapp/foundation/web"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a client sends writes faster than allowed.
var ErrRateLimited = errors.New("rate limit exceeded")

// idleTTL is how long a client limiter is kept without requests.
const idleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows each client address rps requests per second with the
// specified burst. A zero rps disables the limit.
func RateLimit(rps float64, burst int) web.Middleware {
	if rps <= 0 {
		return nil
	}

	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)

	allow := func(key string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		for k, c := range clients {
			if now.Sub(c.lastSeen) > idleTTL {
				delete(clients, k)
			}
		}

		c, exists := clients[key]
		if !exists {
			c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[key] = c
		}
		c.lastSeen = now

		return c.limiter.AllowN(now, 1)
	}

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}

			if !allow(key, time.Now()) {
				return errs.NewTrustedKind(ErrRateLimited, http.StatusTooManyRequests, "busy")
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
