// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/abs-valuers/abs_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		mu:            &sync.RWMutex{},
		defaultLimit:  rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		endpointLimits: map[string]endpointLimit{
			// Each chat turn is a paid model call
			"/api/chat/messages": {limit: rate.Every(3 * time.Second), burst: 5},
			// Public form, spam target
			"/api/quotes": {limit: rate.Every(30 * time.Second), burst: 3},
			// Nominatim usage policy allows one request per second
			"/api/market/geocode": {limit: rate.Every(time.Second), burst: 3},
		},
	}

	go limiter.cleanupBlockedIPs()

	return limiter
}

func (r *RateLimiter) cleanupBlockedIPs() {
	for {
		time.Sleep(1 * time.Hour)
		r.mu.Lock()
		now := time.Now()
		for ip, blockUntil := range r.blockedIPs {
			if now.After(blockUntil) {
				delete(r.blockedIPs, ip)
				delete(r.ips, ip)
			}
		}
		r.mu.Unlock()
	}
}

func limiterKey(ip, path string) string { return ip + "|" + path }

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if strings.HasPrefix(c.Request().URL.Path, "/uploads/") {
				return next(c)
			}

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				delete(r.blockedIPs, ip)
			}
			r.mu.Unlock()

			// Endpoint limits get their own bucket so a chatty page cannot
			// starve the chat or quote budget, and vice versa.
			path := c.Path()
			key, limit, burst := ip, r.defaultLimit, r.defaultBurst
			if el, ok := r.endpointLimits[path]; ok {
				key, limit, burst = limiterKey(ip, path), el.limit, el.burst
			}

			if !r.getLimiter(key, limit, burst).Allow() {
				if key == ip {
					until := time.Now().Add(r.blockDuration)
					r.mu.Lock()
					r.blockedIPs[ip] = until
					r.mu.Unlock()
					return tooManyRequests(c, until)
				}
				return tooManyRequests(c, time.Time{})
			}

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	resp := models.Response{Status: http.StatusTooManyRequests, Message: "Too many requests"}
	if !retryAfter.IsZero() {
		resp.Data = map[string]string{"retryAfter": retryAfter.Format(time.RFC3339)}
	}
	return c.JSON(http.StatusTooManyRequests, resp)
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}
