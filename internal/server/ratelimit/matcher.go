package ratelimit

import (
	"strings"
)

// unlimited marks routes that never consume tokens.
var unlimited = map[string]bool{
	"GET /health":         true,
	"GET /styles/presets": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Paths ending in "/" match by prefix, e.g. "/generations/" matches "/generations/{id}/check".
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if unlimited[method+" "+path] {
		return &EndpointConfig{}
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Then the longest matching prefix
	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}

// key is the bucket name for a request: the configured pattern, so every id under
// a prefix shares one bucket, or the request path when no pattern matched.
func (c *EndpointConfig) key(requestPath string) string {
	if c.Path != "" {
		return c.Path
	}
	return requestPath
}
