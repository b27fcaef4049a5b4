package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/orb/internal/core/domain"
	redisclient "github.com/vietddude/orb/internal/infra/redis"
	"github.com/vietddude/orb/internal/infra/storage/postgres"
	"github.com/vietddude/orb/internal/invoke"
)

// Naming backends.
const (
	NamingMemory   = "memory"
	NamingRedis    = "redis"
	NamingPostgres = "postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Transport TransportConfig    `yaml:"transport"`
	Naming    NamingConfig       `yaml:"naming"`
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
	Invoker   invoke.RetryConfig `yaml:"invoker"`
	Adapters  []AdapterConfig    `yaml:"adapters"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings (health and metrics).
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TransportConfig holds gRPC transport settings.
type TransportConfig struct {
	// Listen is the gRPC listen address, e.g. ":7700".
	Listen string `yaml:"listen"`
	// Endpoint is the address written into published references.
	// Defaults to Listen with an empty host replaced by localhost.
	Endpoint string `yaml:"endpoint"`
}

// NamingConfig selects the naming backend.
type NamingConfig struct {
	Backend string `yaml:"backend"` // memory, redis, postgres
	// Migrate runs the postgres schema migrations on startup.
	Migrate bool `yaml:"migrate"`
	// RepublishInterval is how often published names are checked and
	// restored. Negative disables.
	RepublishInterval time.Duration `yaml:"republish_interval"`
}

// AdapterConfig declares an object adapter created at startup.
type AdapterConfig struct {
	Name      string           `yaml:"name"`
	Lifespan  domain.Lifespan  `yaml:"lifespan"`
	Retention domain.Retention `yaml:"retention"`
}

// Policy returns the adapter policy.
func (a AdapterConfig) Policy() domain.Policy {
	return domain.Policy{Lifespan: a.Lifespan, Retention: a.Retention}
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SlogLevel returns the configured level. debug forces slog.LevelDebug;
// unknown levels fall back to info.
func (l LoggingConfig) SlogLevel(debug bool) slog.Level {
	switch {
	case debug || l.Level == "debug":
		return slog.LevelDebug
	case l.Level == "warn":
		return slog.LevelWarn
	case l.Level == "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate checks cross-field constraints after defaults are applied.
func (c *AppConfig) Validate() error {
	switch c.Naming.Backend {
	case NamingMemory:
	case NamingRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("naming backend redis requires redis.url")
		}
	case NamingPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("naming backend postgres requires database.url")
		}
	default:
		return fmt.Errorf("unknown naming backend %q", c.Naming.Backend)
	}

	seen := make(map[string]bool, len(c.Adapters))
	for _, a := range c.Adapters {
		if a.Name == "" {
			return fmt.Errorf("adapter without name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate adapter %q", a.Name)
		}
		seen[a.Name] = true
		if err := a.Policy().Validate(); err != nil {
			return fmt.Errorf("adapter %s: %w", a.Name, err)
		}
	}
	return nil
}
