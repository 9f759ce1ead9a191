package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWTConfig holds the settings used to verify bearer tokens issued by the auth provider.
type JWTConfig struct {
	Secret   string
	Audience string
	Leeway   time.Duration
}

// NewJWTConfig creates a JWT verification config from environment variables.
// It reads JWT_SECRET (required), JWT_AUDIENCE (default: authenticated) and
// JWT_LEEWAY_SECONDS (default: 30).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	audience := os.Getenv("JWT_AUDIENCE")
	if audience == "" {
		audience = "authenticated"
	}

	leewayStr := os.Getenv("JWT_LEEWAY_SECONDS")
	if leewayStr == "" {
		leewayStr = "30"
	}
	leewaySeconds, err := strconv.Atoi(leewayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_LEEWAY_SECONDS: %v", err)
	}

	cfg := &JWTConfig{
		Secret:   secret,
		Audience: audience,
		Leeway:   time.Duration(leewaySeconds) * time.Second,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Leeway < 0 || c.Leeway > 5*time.Minute {
		return fmt.Errorf("JWT_LEEWAY_SECONDS must be between 0 and 300, got: %d", int(c.Leeway/time.Second))
	}
	return nil
}
