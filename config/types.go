package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/go-astrox/observability"
)

// Config is the effective configuration of the ASTROX client and CLI.
// The koanf instance is kept for key-based access (see GetString and friends).
type Config struct {
	API APIConfig `koanf:"api" json:"api" yaml:"api"`
	Log LogConfig `koanf:"log" json:"log" yaml:"log"`

	Telemetry observability.Config `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// APIConfig describes how to reach the ASTROX web API.
type APIConfig struct {
	BaseURL    string        `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`
	Timeout    time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	MaxRetries int           `koanf:"maxretries" json:"maxretries" yaml:"maxretries"`
	RetryDelay time.Duration `koanf:"retrydelay" json:"retrydelay" yaml:"retrydelay"`

	// LogPayloads enables debug previews of request/response bodies
	LogPayloads        bool `koanf:"logpayloads" json:"logpayloads" yaml:"logpayloads"`
	MaxPayloadLogBytes int  `koanf:"maxpayloadlogbytes" json:"maxpayloadlogbytes" yaml:"maxpayloadlogbytes"`

	RateLimit RateLimitConfig `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit"`
}

// RateLimitConfig throttles outgoing attempts. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" json:"rps" yaml:"rps"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}
