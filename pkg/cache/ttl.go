package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// headerValue normalizes a possibly multi-valued header to its first value.
// http.Header lookups are case-insensitive via canonicalization.
func headerValue(headers http.Header, key string) string {
	return strings.TrimSpace(headers.Get(key))
}

// computeTTL derives an entry TTL from response headers. Cache-Control
// max-age wins over Expires; whatever the source, the result never drops
// below MinTTL.
func computeTTL(headers http.Header, now time.Time) time.Duration {
	var ttl time.Duration

	if maxAge, ok := parseMaxAge(headerValue(headers, "Cache-Control")); ok {
		ttl = maxAge
	} else if expires := headerValue(headers, "Expires"); expires != "" {
		if t, err := http.ParseTime(expires); err == nil {
			if d := t.Sub(now); d > 0 {
				ttl = d
			}
		}
	}

	if ttl < MinTTL {
		ttl = MinTTL
	}
	return ttl
}

// parseMaxAge extracts the max-age or s-maxage value from a Cache-Control
// header. Returns false if not found or invalid.
func parseMaxAge(cacheControl string) (time.Duration, bool) {
	cacheControl = strings.ToLower(cacheControl)
	directives := strings.Split(cacheControl, ",")

	for _, directive := range directives {
		directive = strings.TrimSpace(directive)

		if strings.HasPrefix(directive, "max-age=") {
			if maxAge, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && maxAge > 0 {
				return time.Duration(maxAge) * time.Second, true
			}
		}
		if strings.HasPrefix(directive, "s-maxage=") {
			if maxAge, err := strconv.Atoi(strings.TrimPrefix(directive, "s-maxage=")); err == nil && maxAge > 0 {
				return time.Duration(maxAge) * time.Second, true
			}
		}
	}

	return 0, false
}
