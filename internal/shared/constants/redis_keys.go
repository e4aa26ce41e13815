package constants

import (
	"fmt"
	"time"
)

// Redis keys follow busline:{module}:{kind}:{identifier}

const (
	TTL_STATIC_LONG     = 24 * time.Hour
	TTL_SEMI_STATIC     = 2 * time.Hour
	TTL_DYNAMIC_SHORT   = 5 * time.Minute
	TTL_REALTIME_SHORT  = 30 * time.Second
	CACHE_PREFIX        = "busline"
	RATE_LIMIT_PREFIX   = CACHE_PREFIX + ":ratelimit:"
	PATTERN_ALL_ROUTES  = CACHE_PREFIX + ":routes:*"
	PATTERN_ALL_COMPANY = CACHE_PREFIX + ":companies:*"
)

// Reference data. Routes, cities and company settings change rarely and are read on every admission.
const (
	CACHE_KEY_ROUTE_GRAPH    = CACHE_PREFIX + ":routes:graph:uuid:"    // + route-id
	CACHE_KEY_CITIES_ALL     = CACHE_PREFIX + ":routes:cities:all"     // all cities
	CACHE_KEY_COMPANY_CONFIG = CACHE_PREFIX + ":companies:config:uuid:" // + company-id

	TTL_ROUTE_GRAPH    = TTL_SEMI_STATIC
	TTL_CITIES_ALL     = TTL_STATIC_LONG
	TTL_COMPANY_CONFIG = TTL_SEMI_STATIC
)

// Analytics
const (
	CACHE_KEY_TRIP_LOAD = CACHE_PREFIX + ":analytics:trip_load:uuid:" // + trip-id

	TTL_TRIP_LOAD = TTL_REALTIME_SHORT
)

func BuildRouteGraphKey(routeID string) string {
	return CACHE_KEY_ROUTE_GRAPH + routeID
}

func BuildCompanyConfigKey(companyID string) string {
	return CACHE_KEY_COMPANY_CONFIG + companyID
}

func BuildTripLoadKey(tripID string) string {
	return CACHE_KEY_TRIP_LOAD + tripID
}

// BuildRateLimitKey scopes a counter to a client and route class.
func BuildRateLimitKey(class, client string) string {
	return fmt.Sprintf("%s%s:%s", RATE_LIMIT_PREFIX, class, client)
}
