package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// Helper functions for pointers
func stringPtr(s string) *string                 { return &s }
func boolPtr(b bool) *bool                       { return &b }
func intPtr(i int) *int                          { return &i }
func durationPtr(d time.Duration) *time.Duration { return &d }

// changedFlags returns a flag set on which the given names were explicitly set
func changedFlags(t *testing.T, names ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, name := range names {
		fs.String(name, "", "")
		if err := fs.Set(name, "x"); err != nil {
			t.Fatalf("failed to mark flag %s as set: %v", name, err)
		}
	}
	return fs
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		fileName    string
		fileContent string
		envVars     map[string]string
		cliFlags    func(t *testing.T) *CLIFlags
		check       func(t *testing.T, cfg *Config)
		wantErr     bool
	}{
		{
			name: "Default Config Only",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8080" {
					t.Errorf("Server.Port got %q, want 8080", cfg.Server.Port)
				}
				if cfg.Store.Driver != "sqlite" {
					t.Errorf("Store.Driver got %q, want sqlite", cfg.Store.Driver)
				}
			},
		},
		{
			name:        "Load from YAML file",
			fileName:    "config.yaml",
			fileContent: "server: {port: \"8081\"}\nstore:\n  driver: file\n  path: latest.yaml\n  query_timeout: 2s\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8081" {
					t.Errorf("Server.Port got %q, want 8081", cfg.Server.Port)
				}
				if cfg.Store.Driver != "file" || cfg.Store.Path != "latest.yaml" {
					t.Errorf("Store got %+v, want file driver at latest.yaml", cfg.Store)
				}
				if cfg.Store.QueryTimeout != 2*time.Second {
					t.Errorf("Store.QueryTimeout got %v, want 2s", cfg.Store.QueryTimeout)
				}
				if cfg.Server.MetricsPort != "9090" {
					t.Errorf("unset fields should keep defaults, MetricsPort got %q", cfg.Server.MetricsPort)
				}
			},
		},
		{
			name:        "Load from JSON file",
			fileName:    "config.json",
			fileContent: `{"server": {"port": "8082"}, "security": {"rate_limit": {"enabled": false}}}`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8082" {
					t.Errorf("Server.Port got %q, want 8082", cfg.Server.Port)
				}
				if cfg.Security.RateLimit.Enabled {
					t.Error("expected rate limiting to be disabled by the file")
				}
			},
		},
		{
			name:       "File not found",
			configFile: "nonexistent.yaml",
			wantErr:    true,
		},
		{
			name:        "Unsupported extension",
			fileName:    "config.toml",
			fileContent: `port = 1`,
			wantErr:     true,
		},
		{
			name:        "Invalid file content",
			fileName:    "config.yaml",
			fileContent: `server: {port: "8081"`,
			wantErr:     true,
		},
		{
			name: "Load from Environment Variables",
			envVars: map[string]string{
				"TIOGA_HEALTH_PORT":         "8083",
				"TIOGA_HEALTH_STORE_DRIVER": "postgres",
				"TIOGA_HEALTH_STORE_DSN":    "postgres://localhost/tioga",
				"TIOGA_HEALTH_LOG_LEVEL":    "debug",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8083" {
					t.Errorf("Server.Port got %q, want 8083", cfg.Server.Port)
				}
				if cfg.Store.Driver != "postgres" || cfg.Store.DSN != "postgres://localhost/tioga" {
					t.Errorf("Store got %+v", cfg.Store)
				}
				if cfg.Observability.Logging.Level != "debug" {
					t.Errorf("Logging.Level got %q, want debug", cfg.Observability.Logging.Level)
				}
			},
		},
		{
			name: "Unparseable env values are ignored",
			envVars: map[string]string{
				"TIOGA_HEALTH_READ_TIMEOUT": "soon",
				"TIOGA_HEALTH_HOT_RELOAD":   "maybe",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ReadTimeout != 15*time.Second {
					t.Errorf("ReadTimeout got %v, want default 15s", cfg.Server.ReadTimeout)
				}
				if !cfg.HotReload.Enabled {
					t.Error("HotReload.Enabled should keep its default")
				}
			},
		},
		{
			name: "Override with CLI Flags",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					Flags:        changedFlags(t, "port", "rate-limit-rps"),
					Port:         stringPtr("8084"),
					RateLimitRPS: intPtr(3),
				}
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8084" {
					t.Errorf("Server.Port got %q, want 8084", cfg.Server.Port)
				}
				if cfg.Security.RateLimit.RequestsPerSecond != 3 {
					t.Errorf("RequestsPerSecond got %d, want 3", cfg.Security.RateLimit.RequestsPerSecond)
				}
			},
		},
		{
			name: "Unchanged CLI flags do not override",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					Flags:     changedFlags(t),
					Port:      stringPtr("9999"),
					HotReload: boolPtr(false),
				}
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8080" {
					t.Errorf("Server.Port got %q, want default 8080", cfg.Server.Port)
				}
				if !cfg.HotReload.Enabled {
					t.Error("HotReload.Enabled should keep its default")
				}
			},
		},
		{
			name:        "Precedence: CLI > Env > File > Default",
			fileName:    "config.yaml",
			fileContent: "server: {port: \"8085\", read_timeout: 3s}\n",
			envVars: map[string]string{
				"TIOGA_HEALTH_PORT":         "8086",
				"TIOGA_HEALTH_READ_TIMEOUT": "4s",
			},
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					Flags:       changedFlags(t, "port"),
					Port:        stringPtr("8087"),
					ReadTimeout: durationPtr(5 * time.Second),
				}
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8087" {
					t.Errorf("Server.Port got %q, want 8087", cfg.Server.Port)
				}
				if cfg.Server.ReadTimeout != 4*time.Second {
					t.Errorf("ReadTimeout got %v, want env value 4s", cfg.Server.ReadTimeout)
				}
			},
		},
		{
			name: "Validation Error from CLI",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					Flags: changedFlags(t, "port"),
					Port:  stringPtr("invalid-port"),
				}
			},
			wantErr: true,
		},
		{
			name:        "Validation Error from File",
			fileName:    "config.yaml",
			fileContent: `store: {driver: mysql}`,
			wantErr:     true,
		},
		{
			name: "Trusted proxies from Env",
			envVars: map[string]string{
				"TIOGA_HEALTH_TRUSTED_PROXIES": "10.0.0.1, 172.16.0.0/12",
			},
			check: func(t *testing.T, cfg *Config) {
				got := cfg.Security.RateLimit.TrustedProxies
				if len(got) != 2 || got[0] != "10.0.0.1" || got[1] != "172.16.0.0/12" {
					t.Errorf("TrustedProxies got %v, want [10.0.0.1 172.16.0.0/12]", got)
				}
			},
		},
		{
			name: "Invalid trusted proxy from Env",
			envVars: map[string]string{
				"TIOGA_HEALTH_TRUSTED_PROXIES": "lb.internal",
			},
			wantErr: true,
		},
		{
			name: "Validation Error from Env",
			envVars: map[string]string{
				"TIOGA_HEALTH_PORT": "invalid-port",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			actualConfigFile := tt.configFile
			if tt.fileContent != "" {
				actualConfigFile = filepath.Join(t.TempDir(), tt.fileName)
				if err := os.WriteFile(actualConfigFile, []byte(tt.fileContent), 0o644); err != nil {
					t.Fatalf("Failed to create temp config file: %v", err)
				}
			}

			var flags *CLIFlags
			if tt.cliFlags != nil {
				flags = tt.cliFlags(t)
			}

			config, err := LoadConfig(actualConfigFile, flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if config == nil {
				t.Fatal("LoadConfig() returned nil config, expected non-nil")
			}
			if tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestCLIFlags_ChangedWithoutFlagSet(t *testing.T) {
	flags := &CLIFlags{Port: stringPtr("8088")}

	// Nothing is registered on pflag.CommandLine under this name in tests
	if flags.changed("no-such-flag") {
		t.Error("changed() should be false for an unknown flag")
	}
}
