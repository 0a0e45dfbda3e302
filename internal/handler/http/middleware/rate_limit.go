package middleware

import (
	"net/http"
	"sync"

	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func newKeyedLimiter(r rate.Limit, b int) *keyedLimiter {
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (k *keyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	limiter, ok := k.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(k.r, k.b)
		k.limiters[key] = limiter
	}
	return limiter
}

// RateLimitByEmployee throttles requests per {employeeId} path parameter.
// r is requests per second, b the burst.
func RateLimitByEmployee(r rate.Limit, b int) func(http.Handler) http.Handler {
	limiter := newKeyedLimiter(r, b)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			employeeID := chi.URLParam(req, "employeeId")
			if employeeID == "" {
				next.ServeHTTP(w, req)
				return
			}
			if !limiter.get(employeeID).Allow() {
				response.TooManyRequests(w, "Too many enrichment requests for this employee")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
