package api

import (
	"time"

	"github.com/rewearapp/rewear-server/internal/ratelimit"
)

// RateLimiter limits request rates per client key.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a rate limiter allowing ratePerInterval requests
// per interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// clientIP picks the client address from forwarding headers, preferring the
// first hop in X-Forwarded-For.
func clientIP(xForwardedFor, xRealIP, remoteAddr string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	if xRealIP != "" {
		return xRealIP
	}
	// Strip the port from RemoteAddr.
	for i := len(remoteAddr) - 1; i >= 0; i-- {
		if remoteAddr[i] == ':' {
			return remoteAddr[:i]
		}
	}
	return remoteAddr
}
