package config

import (
	"errors"
	"fmt"
)

// Config represents the unified configuration structure
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Store         StoreConfig         `json:"store" yaml:"store"`
	Security      SecurityConfig      `json:"security" yaml:"security"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	HotReload     HotReloadConfig     `json:"hot_reload" yaml:"hot_reload"`
	TLS           TLSConfig           `json:"tls" yaml:"tls"`
	Mail          MailConfig          `json:"mail" yaml:"mail"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:        DefaultServerConfig(),
		Store:         DefaultStoreConfig(),
		Security:      DefaultSecurityConfig(),
		Observability: DefaultObservabilityConfig(),
		HotReload:     DefaultHotReloadConfig(),
		TLS:           DefaultTLSConfig(),
		Mail:          DefaultMailConfig(),
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("security: %w", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}
	if err := c.HotReload.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("hot_reload: %w", err))
	}
	if err := c.TLS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tls: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetMetricsAddress returns the full metrics server address
func (c *Config) GetMetricsAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.MetricsPort)
}

// IsRateLimitEnabled returns whether rate limiting is enabled
func (c *Config) IsRateLimitEnabled() bool {
	return c.Security.RateLimit.Enabled
}
