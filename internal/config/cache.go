package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache on the admin read
// endpoints.  Writes to rooms, students or allocations bump a generation
// counter, so TTL only limits how long an untouched entry lingers.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // upper-case HTTP methods that may be cached
	TTL          time.Duration
	KeyStrategy  string // route, method_route or route_query
	Prefix       string
	MaxBodyBytes int // larger responses are passed through uncached
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methodSet(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "exam:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// methodSet turns "get, head" into {"GET", "HEAD"}.
func methodSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range strings.FieldsFunc(strings.ToUpper(list), func(r rune) bool { return r == ',' || r == ' ' }) {
		set[m] = true
	}
	return set
}
