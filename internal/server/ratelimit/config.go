package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the quota for one route pattern. A Path ending in "/" matches by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int // requests per Window; 0 disables limiting
	Window time.Duration
	Burst  int // bucket capacity; Limit when 0
}

// Quota groups share one env override, e.g. RATE_LIMIT_GENERATE=5/1h.
const (
	quotaGenerate = "GENERATE"
	quotaAnalyze  = "ANALYZE"
	quotaCheck    = "CHECK"
	quotaWrite    = "WRITE"
)

type quotaRoute struct {
	path, method string
}

var quotaRoutes = map[string][]quotaRoute{
	quotaGenerate: {{"/generations", "POST"}, {"/generations/stream", "POST"}},
	quotaAnalyze:  {{"/styles/analyze", "POST"}},
	quotaCheck:    {{"/generations/", "POST"}, {"/renders/", "POST"}},
	quotaWrite:    {{"/styles", "POST"}, {"/styles/", "DELETE"}, {"/generations/", "DELETE"}},
}

type quota struct {
	limit  int
	window time.Duration
	burst  int
}

var defaultQuotas = map[string]quota{
	quotaGenerate: {limit: 10, window: time.Hour, burst: 2},
	quotaAnalyze:  {limit: 30, window: time.Hour, burst: 5},
	quotaCheck:    {limit: 60, window: time.Minute, burst: 10},
	quotaWrite:    {limit: 100, window: time.Minute, burst: 10},
}

// LoadConfig reads the limiter settings from the process environment.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom reads the limiter settings through getenv. Malformed values keep their defaults.
func LoadConfigFrom(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	endpoints := make([]EndpointConfig, 0, 8)
	for _, group := range []string{quotaGenerate, quotaAnalyze, quotaCheck, quotaWrite} {
		q := defaultQuotas[group]
		if override, ok := parseQuota(getenv("RATE_LIMIT_" + group)); ok {
			q = override
		}
		for _, r := range quotaRoutes[group] {
			endpoints = append(endpoints, EndpointConfig{Path: r.path, Method: r.method, Limit: q.limit, Window: q.window, Burst: q.burst})
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the built-in per-route quotas.
func DefaultEndpointConfigs() []EndpointConfig {
	return LoadConfigFrom(func(string) string { return "" }).EndpointConfigs
}

// parseQuota reads "limit/window" or "limit/window/burst", e.g. "10/1h/2".
func parseQuota(value string) (quota, bool) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return quota{}, false
	}
	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit < 0 {
		return quota{}, false
	}
	window, err := time.ParseDuration(parts[1])
	if err != nil || window <= 0 {
		return quota{}, false
	}
	q := quota{limit: limit, window: window}
	if len(parts) == 3 {
		if q.burst, err = strconv.Atoi(parts[2]); err != nil || q.burst < 0 {
			return quota{}, false
		}
	}
	return q, true
}

type envReader func(string) string

func (e envReader) int(key string, fallback int) int {
	if n, err := strconv.Atoi(e(key)); err == nil {
		return n
	}
	return fallback
}

func (e envReader) bool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(e(key)); err == nil {
		return b
	}
	return fallback
}

func (e envReader) duration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(e(key)); err == nil {
		return d
	}
	return fallback
}

// parseIPList turns "1.2.3.4, 5.6.7.8" into a set.
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
