package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimiter gates incoming preview requests. The preview server sits
// behind no other protection, so even artifact downloads (which stream
// full tables) go through the bucket.
type rateLimiter interface {
	Allow() bool
}

type tokenBucket struct {
	bucket *rate.Limiter
}

// newTokenBucketLimiter builds a shared token bucket for all clients.
// Non-positive rps or burst disables limiting entirely; the preview
// server is internal tooling and an open bucket is a valid deployment.
func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 || burst <= 0 {
		return nil
	}
	return &tokenBucket{
		bucket: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (t *tokenBucket) Allow() bool {
	if t == nil || t.bucket == nil {
		return true
	}
	return t.bucket.Allow()
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, retry shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
