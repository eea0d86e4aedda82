package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/leslieo2/tioga-health/internal/constants"
)

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Headers   SecurityHeaders `json:"headers" yaml:"headers"`
}

// RateLimitConfig contains per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	RequestsPerSecond int           `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxCacheSize      int           `json:"max_cache_size" yaml:"max_cache_size"`
	// TrustedProxies lists peers (IP or CIDR) whose forwarding headers are believed.
	TrustedProxies    []string      `json:"trusted_proxies" yaml:"trusted_proxies"`
}

// SecurityHeaders contains security headers configuration
type SecurityHeaders struct {
	Enabled               bool   `json:"enabled" yaml:"enabled"`
	ContentSecurityPolicy string `json:"content_security_policy" yaml:"content_security_policy"`
	HSTSMaxAge            int    `json:"hsts_max_age" yaml:"hsts_max_age"`
}

// DefaultSecurityConfig returns default security configuration
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RateLimit: DefaultRateLimitConfig(),
		Headers:   DefaultSecurityHeaders(),
	}
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   constants.RateLimitCleanupInterval,
		MaxCacheSize:      constants.RateLimitMaxCacheSize,
	}
}

// DefaultSecurityHeaders returns default security headers
func DefaultSecurityHeaders() SecurityHeaders {
	return SecurityHeaders{
		Enabled:               true,
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
		HSTSMaxAge:            31536000, // 1 year
	}
}

// Validate validates the security configuration
func (s *SecurityConfig) Validate() error {
	var errs []error

	if err := s.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate_limit: %w", err))
	}
	if err := s.Headers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("headers: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate validates the rate limit configuration
func (r *RateLimitConfig) Validate() error {
	var errs []error
	// the access log reads client addresses through these even when limiting is off
	for _, entry := range r.TrustedProxies {
		if !validProxyEntry(entry) {
			errs = append(errs, fmt.Errorf("trusted_proxies: %q is not an IP address or CIDR", entry))
		}
	}
	if !r.Enabled {
		return errors.Join(errs...)
	}

	if r.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests_per_second must be positive"))
	}
	if r.BurstSize <= 0 {
		errs = append(errs, errors.New("burst_size must be positive"))
	}
	if r.CleanupInterval < 0 {
		errs = append(errs, errors.New("cleanup_interval must be non-negative"))
	}
	if r.MaxCacheSize < 0 {
		errs = append(errs, errors.New("max_cache_size must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validProxyEntry(entry string) bool {
	if _, err := netip.ParsePrefix(entry); err == nil {
		return true
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}

// Validate validates the security headers configuration
func (h *SecurityHeaders) Validate() error {
	if h.Enabled && h.HSTSMaxAge < 0 {
		return fmt.Errorf("hsts_max_age must be non-negative")
	}
	return nil
}
