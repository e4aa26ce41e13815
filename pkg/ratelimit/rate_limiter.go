package ratelimit

import (
	"context"
	"time"

	"busline/internal/shared/config"
	"busline/internal/shared/constants"
)

type RateLimitType string

const (
	RateLimitTypeDefault         RateLimitType = "default"
	RateLimitTypePublic          RateLimitType = "public"
	RateLimitTypeAuth            RateLimitType = "auth"
	RateLimitTypeBooking         RateLimitType = "booking"
	RateLimitTypeBookingCritical RateLimitType = "booking_critical"
	RateLimitTypeAdmin           RateLimitType = "admin"
	RateLimitTypeHealth          RateLimitType = "health"
)

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter applies per-client, per-class limits on top of a Store.
type RateLimiter struct {
	store  Store
	config config.RateLimitConfig
	now    func() time.Time
}

func NewRateLimiter(store Store, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{store: store, config: cfg, now: time.Now}
}

// IsAllowed records a hit for clientIP in limitType's window.
func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	reset := r.now().Add(r.config.WindowDuration).Unix()

	if !r.config.Enabled || limitType == RateLimitTypeHealth || r.isWhitelisted(clientIP) || limit <= 0 {
		return &Result{Allowed: true, Limit: limit, Remaining: limit, ResetTime: reset}, nil
	}

	key := constants.BuildRateLimitKey(string(limitType), clientIP)
	count, allowed, err := r.store.Hit(ctx, key, limit, r.config.WindowDuration)
	if err != nil {
		return nil, err
	}

	remaining := limit - count
	if remaining < 0 || !allowed {
		remaining = 0
	}
	return &Result{Allowed: allowed, Limit: limit, Remaining: remaining, ResetTime: reset}, nil
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypePublic:
		return r.config.PublicRequests
	case RateLimitTypeAuth:
		return r.config.AuthRequests
	case RateLimitTypeBooking:
		return r.config.BookingRequests
	case RateLimitTypeBookingCritical:
		return r.config.CriticalLimit
	case RateLimitTypeAdmin:
		return r.config.AdminRequests
	case RateLimitTypeHealth:
		return 0
	default:
		return r.config.DefaultRequests
	}
}

func (r *RateLimiter) isWhitelisted(ip string) bool {
	for _, whitelisted := range r.config.WhitelistedIPs {
		if ip == whitelisted {
			return true
		}
	}
	return false
}
