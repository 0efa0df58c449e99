// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service endpoints and runtime settings.
// All fields are optional in the file; missing values use defaults, env vars or CLI flags.
type Config struct {
	// Remote services
	ResumeStoreURL string `json:"resume_store_url,omitempty" yaml:"resume_store_url"` // Resume store, customizer, cover letter and renderer base URL
	TrackerURL     string `json:"tracker_url,omitempty" yaml:"tracker_url"`           // Application tracking system; submission is skipped when empty
	AuthKey        string `json:"auth_key,omitempty" yaml:"auth_key"`                 // Sent as X-Auth-Key and required on the HTTP API when set

	// Output
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir"`

	// Persistence
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url"` // PostgreSQL connection URL for the run ledger

	// Timing, as Go duration strings
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout"`
	TickInterval   string `json:"tick_interval,omitempty" yaml:"tick_interval"`

	// Logging
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format"`

	// Server
	Port int `json:"port,omitempty" yaml:"port"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		ResumeStoreURL: "http://localhost:8000",
		OutputDir:      ".",
		RequestTimeout: "120s",
		TickInterval:   "1s",
		LogLevel:       "info",
		LogFormat:      "text",
		Port:           8080,
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// ${VAR} references are replaced with environment values before parsing.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	content := []byte(expandEnvVars(string(data)))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with its value; unset variables are left as written
func expandEnvVars(content string) string {
	return envRef.ReplaceAllStringFunc(content, func(match string) string {
		if value := os.Getenv(match[2 : len(match)-1]); value != "" {
			return value
		}
		return match
	})
}

// Environment variables read by ApplyEnv
const (
	EnvResumeStoreURL = "RESUME_STORE_URL"
	EnvTrackerURL     = "TRACKER_URL"
	EnvAuthKey        = "APP_AUTH_KEY"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvLogLevel       = "LOG_LEVEL"
)

// ApplyEnv overrides fields with non-empty environment variables
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.ResumeStoreURL, EnvResumeStoreURL)
	set(&c.TrackerURL, EnvTrackerURL)
	set(&c.AuthKey, EnvAuthKey)
	set(&c.DatabaseURL, EnvDatabaseURL)
	set(&c.LogLevel, EnvLogLevel)
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validateURL("resume_store_url", c.ResumeStoreURL); err != nil {
		return err
	}
	if err := validateURL("tracker_url", c.TrackerURL); err != nil {
		return err
	}

	if c.RequestTimeout != "" {
		if d, err := time.ParseDuration(c.RequestTimeout); err != nil || d <= 0 {
			return fmt.Errorf("config error: 'request_timeout' must be a positive duration, got %q", c.RequestTimeout)
		}
	}
	if c.TickInterval != "" {
		if d, err := time.ParseDuration(c.TickInterval); err != nil || d <= 0 {
			return fmt.Errorf("config error: 'tick_interval' must be a positive duration, got %q", c.TickInterval)
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config error: 'log_format' must be text or json, got %q", c.LogFormat)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config error: '%s' must be an http(s) URL, got %q", field, raw)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.ResumeStoreURL, defaults.ResumeStoreURL)
	fill(&result.TrackerURL, defaults.TrackerURL)
	fill(&result.AuthKey, defaults.AuthKey)
	fill(&result.OutputDir, defaults.OutputDir)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.RequestTimeout, defaults.RequestTimeout)
	fill(&result.TickInterval, defaults.TickInterval)
	fill(&result.LogLevel, defaults.LogLevel)
	fill(&result.LogFormat, defaults.LogFormat)

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// Timeout returns the per-request timeout, or zero when unset or invalid
func (c *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Tick returns the elapsed-timer interval, or zero when unset or invalid
func (c *Config) Tick() time.Duration {
	d, _ := time.ParseDuration(c.TickInterval)
	return d
}

// Load resolves the effective configuration: defaults, then the optional file, then env
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = *fileCfg
	}
	cfg.ApplyEnv(os.Getenv)
	cfg = cfg.MergeWithDefaults(Defaults())
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
