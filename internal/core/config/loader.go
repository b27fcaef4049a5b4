package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/invoke"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables and
// applying defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Transport.Listen == "" {
		c.Transport.Listen = ":7700"
	}
	if c.Transport.Endpoint == "" {
		c.Transport.Endpoint = endpointFor(c.Transport.Listen)
	}
	if c.Naming.Backend == "" {
		c.Naming.Backend = NamingMemory
	}
	if c.Naming.RepublishInterval == 0 {
		c.Naming.RepublishInterval = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	def := invoke.DefaultRetryConfig
	if c.Invoker.MaxAttempts == 0 {
		c.Invoker.MaxAttempts = def.MaxAttempts
	}
	if c.Invoker.InitialDelay == 0 {
		c.Invoker.InitialDelay = def.InitialDelay
	}
	if c.Invoker.MaxDelay == 0 {
		c.Invoker.MaxDelay = def.MaxDelay
	}
	if c.Invoker.BackoffMultiple == 0 {
		c.Invoker.BackoffMultiple = def.BackoffMultiple
	}

	for i := range c.Adapters {
		if c.Adapters[i].Lifespan == "" {
			c.Adapters[i].Lifespan = domain.LifespanPersistent
		}
		if c.Adapters[i].Retention == "" {
			c.Adapters[i].Retention = domain.RetentionRetain
		}
	}
}

func endpointFor(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
