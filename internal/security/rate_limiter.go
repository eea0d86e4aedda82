package security

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/constants"
)

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	limiters  *cache.Cache
	config    *config.RateLimitConfig
	skipPaths map[string]bool
	proxies   TrustedProxies

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cache size enforcement.
// Call Stop to release the background goroutine.
func NewRateLimiter(cfg *config.RateLimitConfig, skipPaths ...string) *RateLimiter {
	rl := newRateLimiter(cfg, skipPaths...)

	maxCacheSize := cfg.MaxCacheSize
	if maxCacheSize == 0 {
		maxCacheSize = constants.RateLimitMaxCacheSize
	}
	go rl.periodicCleanup(maxCacheSize)

	return rl
}

func newRateLimiter(cfg *config.RateLimitConfig, skipPaths ...string) *RateLimiter {
	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = constants.RateLimitCleanupInterval
	}

	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return &RateLimiter{
		limiters:  cache.New(cleanup, cleanup*2),
		config:    cfg,
		skipPaths: skip,
		proxies:   ParseTrustedProxies(cfg.TrustedProxies),
		stop:      make(chan struct{}),
	}
}

// Stop ends the background cleanup
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// periodicCleanup trims the cache when it grows past maxSize
func (rl *RateLimiter) periodicCleanup(maxSize int) {
	interval := rl.config.CleanupInterval
	if interval == 0 {
		interval = constants.RateLimitCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evict(maxSize)
		}
	}
}

// evict drops arbitrary entries until the cache is 10% under maxSize.
// go-cache keeps no access times, and map iteration order is random enough here.
func (rl *RateLimiter) evict(maxSize int) {
	currentSize := rl.limiters.ItemCount()
	if currentSize <= maxSize {
		return
	}

	toRemove := currentSize - maxSize + maxSize/10
	for key := range rl.limiters.Items() {
		if toRemove <= 0 {
			break
		}
		rl.limiters.Delete(key)
		toRemove--
	}
}

func (rl *RateLimiter) limiter(identifier string) *rate.Limiter {
	if item, found := rl.limiters.Get(identifier); found {
		return item.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
	// Add fails if a concurrent request created the limiter first
	if err := rl.limiters.Add(identifier, limiter, cache.DefaultExpiration); err != nil {
		if item, found := rl.limiters.Get(identifier); found {
			return item.(*rate.Limiter)
		}
	}
	return limiter
}

// Allow reports whether one more request from identifier fits in its bucket
func (rl *RateLimiter) Allow(identifier string) bool {
	if !rl.config.Enabled {
		return true
	}
	return rl.limiter(identifier).Allow()
}

// Remaining returns the whole tokens left for identifier
func (rl *RateLimiter) Remaining(identifier string) int {
	tokens := rl.limiter(identifier).Tokens()
	if tokens < 0 {
		return 0
	}
	return int(math.Floor(tokens))
}

// retryAfter estimates how long until one token is available
func (rl *RateLimiter) retryAfter() time.Duration {
	if rl.config.RequestsPerSecond <= 0 {
		return time.Second
	}
	d := time.Duration(float64(time.Second) / float64(rl.config.RequestsPerSecond))
	if d < time.Second {
		return time.Second
	}
	return d
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled || rl.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		identifier := "ip:" + rl.proxies.ClientIP(r)

		if !rl.Allow(identifier) {
			retry := rl.retryAfter()

			w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
			w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(rl.config.BurstSize))
			w.Header().Set(constants.HeaderXRateLimitRemaining, "0")
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(int(retry.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error":       constants.ErrorCodeRateLimitExceeded,
				"message":     fmt.Sprintf("Rate limit exceeded. Try again in %v", retry),
				"retry_after": int(retry.Seconds()),
			})
			return
		}

		w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(rl.config.BurstSize))
		w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(rl.Remaining(identifier)))

		next.ServeHTTP(w, r)
	})
}
