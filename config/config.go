package config

import (
	"fmt"
	"slices"

	"github.com/emmanuelhcpk/wolmo-networking/endpoint"
	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/observability"
	"github.com/emmanuelhcpk/wolmo-networking/resilience"
)

// Config is the complete client configuration.
//
// Example config.yml:
//
//	name: orders-app
//	endpoint:
//	  secure: true
//	  host: api.example.com
//	  sub_path: /v2
//	  use_pinning: true
//	  pins: ["base64-spki-sha256"]
//	http:
//	  timeout: 20s
//	  retry:
//	    max_attempts: 3
//	polling:
//	  interval: 1s
//	  max_attempts: 60
//	logging:
//	  level: debug
type Config struct {
	Name        string                     `yaml:"name" mapstructure:"name"`
	Environment string                     `yaml:"environment" mapstructure:"environment"`
	Endpoint    endpoint.Config            `yaml:"endpoint" mapstructure:"endpoint"`
	HTTP        httpclient.Config          `yaml:"http" mapstructure:"http"`
	Polling     resilience.PollConfig      `yaml:"polling" mapstructure:"polling"`
	Logging     logger.Config              `yaml:"logging" mapstructure:"logging"`
	Tracing     observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults applies default values to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "wolmo-networking"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Endpoint.ApplyDefaults()
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = c.Endpoint.Timeout
	}
	c.HTTP.ApplyDefaults()
	c.Polling.ApplyDefaults()
	c.Logging.ApplyDefaults()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	c.Tracing.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	if !slices.Contains(validEnvs, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Endpoint.Validate(); err != nil {
		return fmt.Errorf("config.endpoint: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("config.http: %w", err)
	}
	if err := c.Polling.Validate(); err != nil {
		return fmt.Errorf("config.polling: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("config.tracing: %w", err)
	}
	return nil
}
