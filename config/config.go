// Package config loads the ASTROX client configuration.
//
// Sources, lowest priority first:
//  1. built-in defaults
//  2. an optional YAML file
//  3. ASTROX_* environment variables (ASTROX_API_BASEURL overrides api.baseurl)
package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gaborage/go-astrox/httpclient"
	"github.com/gaborage/go-astrox/logger"
	"github.com/gaborage/go-astrox/observability"
)

// EnvPrefix marks environment variables that override configuration keys.
const EnvPrefix = "ASTROX_"

var validLogLevels = []string{"debug", "info", "warn", "error", "disabled"}

// Load reads defaults, then the YAML file at path (skipped when path is empty), then
// the environment. The result is validated.
func Load(path string) (*Config, error) {
	var source koanf.Provider
	if path != "" {
		source = file.Provider(path)
	}
	return load(source)
}

// LoadYAML is Load with the YAML document given in memory.
func LoadYAML(data []byte) (*Config, error) {
	return load(rawbytes.Provider(data))
}

func load(source koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if source != nil {
		if err := k.Load(source, yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"api.baseurl":            httpclient.DefaultBaseURL,
		"api.timeout":            httpclient.DefaultTimeout.String(),
		"api.maxretries":         httpclient.DefaultMaxRetries,
		"api.retrydelay":         httpclient.DefaultRetryDelay.String(),
		"api.logpayloads":        false,
		"api.maxpayloadlogbytes": httpclient.DefaultMaxPayloadLogBytes,
		"api.ratelimit.rps":      0.0,
		"api.ratelimit.burst":    1,

		"log.level":  "info",
		"log.pretty": false,

		"telemetry.enabled":         false,
		"telemetry.servicename":     observability.DefaultServiceName,
		"telemetry.endpoint":        observability.EndpointStdout,
		"telemetry.protocol":        observability.ProtocolHTTP,
		"telemetry.insecure":        false,
		"telemetry.samplerate":      1.0,
		"telemetry.metricsinterval": observability.DefaultMetricsInterval.String(),
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// Validate checks cfg and returns the first problem as a *ConfigError.
func Validate(cfg *Config) error {
	if err := validateAPI(&cfg.API); err != nil {
		return err
	}
	if err := validateLog(&cfg.Log); err != nil {
		return err
	}
	return validateTelemetry(&cfg.Telemetry)
}

func validateAPI(cfg *APIConfig) error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return NewMissingFieldError("api.baseurl")
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return NewInvalidFieldError("api.baseurl", fmt.Sprintf("%q is not an http(s) url", cfg.BaseURL), nil)
	}
	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("api.timeout", "must be positive", nil)
	}
	if cfg.MaxRetries < 1 {
		return NewInvalidFieldError("api.maxretries", "must be at least 1", nil)
	}
	if cfg.RetryDelay < 0 {
		return NewInvalidFieldError("api.retrydelay", "must not be negative", nil)
	}
	if cfg.MaxPayloadLogBytes < 0 {
		return NewInvalidFieldError("api.maxpayloadlogbytes", "must not be negative", nil)
	}
	if cfg.RateLimit.RPS < 0 {
		return NewInvalidFieldError("api.ratelimit.rps", "must not be negative", nil)
	}
	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst < 1 {
		return NewInvalidFieldError("api.ratelimit.burst", "must be at least 1 when rate limiting is enabled", nil)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Level)) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level), validLogLevels)
	}
	return nil
}

func validateTelemetry(cfg *observability.Config) error {
	err := cfg.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, observability.ErrMissingServiceName):
		return NewMissingFieldError("telemetry.servicename")
	case errors.Is(err, observability.ErrInvalidSampleRate):
		return NewInvalidFieldError("telemetry.samplerate", "must be between 0.0 and 1.0", nil)
	case errors.Is(err, observability.ErrInvalidProtocol):
		return NewInvalidFieldError("telemetry.protocol", fmt.Sprintf("unknown protocol %q", cfg.Protocol),
			[]string{observability.ProtocolHTTP, observability.ProtocolGRPC})
	default:
		return NewInvalidFieldError("telemetry", err.Error(), nil)
	}
}

// RequestConfig returns the connection settings for httpclient.New.
func (c *Config) RequestConfig() httpclient.RequestConfig {
	return httpclient.RequestConfig{
		BaseURL:    c.API.BaseURL,
		Timeout:    c.API.Timeout,
		MaxRetries: c.API.MaxRetries,
		RetryDelay: c.API.RetryDelay,
	}
}

// ClientOptions returns the client options implied by the configuration.
func (c *Config) ClientOptions(log logger.Logger) []httpclient.Option {
	opts := []httpclient.Option{httpclient.WithLogger(log)}
	if c.API.LogPayloads {
		opts = append(opts, httpclient.WithLogPayloads(c.API.MaxPayloadLogBytes))
	}
	if c.API.RateLimit.RPS > 0 {
		opts = append(opts, httpclient.WithRateLimit(c.API.RateLimit.RPS, c.API.RateLimit.Burst))
	}
	return opts
}

// NewLogger builds the logger described by the log section, writing to w.
func (c *Config) NewLogger(w io.Writer) *logger.ZeroLogger {
	return logger.NewWithWriter(w, c.Log.Level, c.Log.Pretty)
}

// NewTelemetry starts the exporters of the telemetry section. The stdout exporter
// writes to w. Callers must Shutdown the provider to flush.
func (c *Config) NewTelemetry(w io.Writer, log logger.Logger) (observability.Provider, error) {
	return observability.NewProvider(c.Telemetry, observability.WithWriter(w), observability.WithLogger(log))
}

// ErrUnknownKey is returned by Lookup for keys that are not set.
var ErrUnknownKey = errors.New("unknown configuration key")

// Lookup returns the effective raw value of key (e.g. "api.timeout").
func (c *Config) Lookup(key string) (any, error) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c.k.Get(key), nil
}

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		if len(defaultVal) > 0 {
			return defaultVal[0]
		}
		return ""
	}
	return c.k.String(key)
}

// GetDuration retrieves a duration value from the configuration or the provided default.
func (c *Config) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		if len(defaultVal) > 0 {
			return defaultVal[0]
		}
		return 0
	}
	return c.k.Duration(key)
}

// All returns the effective configuration as a nested map.
func (c *Config) All() map[string]any {
	if c == nil || c.k == nil {
		return map[string]any{}
	}
	return c.k.Raw()
}
