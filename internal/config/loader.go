package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leslieo2/tioga-health/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration with precedence:
// 1. Explicitly set CLI flags (highest priority)
// 2. Environment variables
// 3. Configuration file values
// 4. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	config := DefaultConfig()

	if configFile != "" {
		if err := loadFromFile(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	loadFromEnv(config)

	if cliFlags != nil {
		overrideWithCLI(config, cliFlags)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// CLIFlags contains CLI flag values that can override configuration.
// A value only applies when the flag of the same name was set on Flags.
type CLIFlags struct {
	// Flags is the set the values were parsed from, pflag.CommandLine when nil
	Flags *pflag.FlagSet

	Host              *string
	Port              *string
	MetricsPort       *string
	ReadTimeout       *time.Duration
	WriteTimeout      *time.Duration
	IdleTimeout       *time.Duration
	ShutdownTimeout   *time.Duration
	StoreDriver       *string
	StoreDSN          *string
	StorePath         *string
	LogLevel          *string
	LogFormat         *string
	RateLimitEnabled  *bool
	RateLimitRPS      *int
	HotReload         *bool
	HotReloadDebounce *time.Duration
	TLSEnabled        *bool
	TLSCertFile       *string
	TLSKeyFile        *string
}

// changed reports whether the named flag was explicitly set
func (f *CLIFlags) changed(name string) bool {
	set := f.Flags
	if set == nil {
		set = pflag.CommandLine
	}
	flag := set.Lookup(name)
	return flag != nil && flag.Changed
}

// loadFromFile decodes a YAML or JSON file on top of config
func loadFromFile(filePath string, config *Config) error {
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}

	data, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	ext := filepath.Ext(filePath)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
// Values that fail to parse are ignored.
func loadFromEnv(config *Config) {
	setString(&config.Server.Host, constants.EnvHost)
	setString(&config.Server.Port, constants.EnvPort)
	setString(&config.Server.MetricsPort, constants.EnvMetricsPort)
	setDuration(&config.Server.ReadTimeout, constants.EnvReadTimeout)
	setDuration(&config.Server.WriteTimeout, constants.EnvWriteTimeout)
	setDuration(&config.Server.IdleTimeout, constants.EnvIdleTimeout)
	setDuration(&config.Server.ShutdownTimeout, constants.EnvShutdownTimeout)
	if val := os.Getenv(constants.EnvMaxRequestSize); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Server.MaxRequestSize = size
		}
	}

	setString(&config.Store.Driver, constants.EnvStoreDriver)
	setString(&config.Store.DSN, constants.EnvStoreDSN)
	setString(&config.Store.Path, constants.EnvStorePath)
	setDuration(&config.Store.QueryTimeout, constants.EnvStoreQueryTimeout)

	setString(&config.Observability.Logging.Level, constants.EnvLogLevel)
	setString(&config.Observability.Logging.Format, constants.EnvLogFormat)

	setBool(&config.Security.RateLimit.Enabled, constants.EnvRateLimitEnabled)
	if val := os.Getenv(constants.EnvRateLimitRPS); val != "" {
		if rps, err := strconv.Atoi(val); err == nil {
			config.Security.RateLimit.RequestsPerSecond = rps
		}
	}
	if val := os.Getenv(constants.EnvTrustedProxies); val != "" {
		config.Security.RateLimit.TrustedProxies = nil
		for _, entry := range strings.Split(val, ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				config.Security.RateLimit.TrustedProxies = append(config.Security.RateLimit.TrustedProxies, entry)
			}
		}
	}

	setBool(&config.HotReload.Enabled, constants.EnvHotReload)
	setDuration(&config.HotReload.Debounce, constants.EnvHotReloadDebounce)

	setBool(&config.TLS.Enabled, constants.EnvTLSEnabled)
	setString(&config.TLS.CertFile, constants.EnvTLSCertFile)
	setString(&config.TLS.KeyFile, constants.EnvTLSKeyFile)

	setString(&config.Mail.Region, constants.EnvMailRegion)
}

func setString(dst *string, env string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func setBool(dst *bool, env string) {
	if val := os.Getenv(env); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, env string) {
	if val := os.Getenv(env); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// overrideWithCLI overrides configuration with CLI flag values.
// Only explicitly set CLI flags override other configuration sources.
func overrideWithCLI(config *Config, flags *CLIFlags) {
	if flags.Host != nil && flags.changed("host") {
		config.Server.Host = *flags.Host
	}
	if flags.Port != nil && flags.changed("port") {
		config.Server.Port = *flags.Port
	}
	if flags.MetricsPort != nil && flags.changed("metrics-port") {
		config.Server.MetricsPort = *flags.MetricsPort
	}
	if flags.ReadTimeout != nil && flags.changed("read-timeout") {
		config.Server.ReadTimeout = *flags.ReadTimeout
	}
	if flags.WriteTimeout != nil && flags.changed("write-timeout") {
		config.Server.WriteTimeout = *flags.WriteTimeout
	}
	if flags.IdleTimeout != nil && flags.changed("idle-timeout") {
		config.Server.IdleTimeout = *flags.IdleTimeout
	}
	if flags.ShutdownTimeout != nil && flags.changed("shutdown-timeout") {
		config.Server.ShutdownTimeout = *flags.ShutdownTimeout
	}

	// Store
	if flags.StoreDriver != nil && flags.changed("store-driver") {
		config.Store.Driver = *flags.StoreDriver
	}
	if flags.StoreDSN != nil && flags.changed("store-dsn") {
		config.Store.DSN = *flags.StoreDSN
	}
	if flags.StorePath != nil && flags.changed("store-path") {
		config.Store.Path = *flags.StorePath
	}

	// Logging
	if flags.LogLevel != nil && flags.changed("log-level") {
		config.Observability.Logging.Level = *flags.LogLevel
	}
	if flags.LogFormat != nil && flags.changed("log-format") {
		config.Observability.Logging.Format = *flags.LogFormat
	}

	// Rate limiting
	if flags.RateLimitEnabled != nil && flags.changed("rate-limit-enabled") {
		config.Security.RateLimit.Enabled = *flags.RateLimitEnabled
	}
	if flags.RateLimitRPS != nil && flags.changed("rate-limit-rps") {
		config.Security.RateLimit.RequestsPerSecond = *flags.RateLimitRPS
	}

	// Hot reload
	if flags.HotReload != nil && flags.changed("hot-reload") {
		config.HotReload.Enabled = *flags.HotReload
	}
	if flags.HotReloadDebounce != nil && flags.changed("hot-reload-debounce") {
		config.HotReload.Debounce = *flags.HotReloadDebounce
	}

	// TLS
	if flags.TLSEnabled != nil && flags.changed("tls-enabled") {
		config.TLS.Enabled = *flags.TLSEnabled
	}
	if flags.TLSCertFile != nil && flags.changed("tls-cert-file") {
		config.TLS.CertFile = *flags.TLSCertFile
	}
	if flags.TLSKeyFile != nil && flags.changed("tls-key-file") {
		config.TLS.KeyFile = *flags.TLSKeyFile
	}
}
