package observability

import (
	"fmt"
	"maps"
	"time"
)

const (
	// EndpointStdout writes spans and metrics to the provider's writer instead of an
	// OTLP collector.
	EndpointStdout = "stdout"

	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"

	DefaultServiceName     = "astrox-cli"
	DefaultMetricsInterval = 30 * time.Second
)

// Config selects where telemetry from the ASTROX client is exported.
type Config struct {
	Enabled        bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	ServiceName    string `koanf:"servicename" json:"servicename" yaml:"servicename"`
	ServiceVersion string `koanf:"serviceversion" json:"serviceversion" yaml:"serviceversion"`

	// Endpoint is "stdout" or a collector host:port.
	Endpoint string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol string            `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers  map[string]string `koanf:"headers" json:"-" yaml:"headers"`

	SampleRate      float64       `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
	MetricsInterval time.Duration `koanf:"metricsinterval" json:"metricsinterval" yaml:"metricsinterval"`
}

// ApplyDefaults fills unset fields. SampleRate is left alone: 0 is a valid choice.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "unknown"
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = DefaultMetricsInterval
	}
	c.Headers = maps.Clone(c.Headers)
}

// Validate reports the first invalid field. A disabled config is always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.Endpoint != EndpointStdout && c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return fmt.Errorf("protocol %q: %w", c.Protocol, ErrInvalidProtocol)
	}
	return nil
}
