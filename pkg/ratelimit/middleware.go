// Package ratelimit throttles HTTP clients per route class. It is independent of the
// booking engine's trip locks.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"busline/internal/shared/utils/response"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests over their class limit with 429. A failing store lets the
// request through.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	log := logger.GetDefault().WithComponent("ratelimit")

	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.Method, c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.Error("rate limit check failed", "error", err.Error(), "class", string(limitType))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP+":"+string(limitType), c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

var criticalActions = []string{"/reserve", "/confirm", "/cancel", "/check-in", "/payments"}

func getRateLimitType(method, path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	// writes that take a trip lock
	case method == http.MethodPost && strings.HasSuffix(path, "/bookings"),
		method == http.MethodPost && strings.Contains(path, "/bookings/") && hasAnySuffix(path, criticalActions),
		strings.HasSuffix(path, "/payments/initiate"):
		return RateLimitTypeBookingCritical

	case strings.Contains(path, "/bookings"),
		strings.Contains(path, "/tickets"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/trips"),
		strings.Contains(path, "/routes"),
		strings.Contains(path, "/cities"),
		strings.Contains(path, "/companies"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	xRealIP := c.GetHeader("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
