package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/orb/internal/core/config"
	"github.com/vietddude/orb/internal/health"
	redisclient "github.com/vietddude/orb/internal/infra/redis"
	"github.com/vietddude/orb/internal/infra/storage"
	"github.com/vietddude/orb/internal/infra/storage/memory"
	"github.com/vietddude/orb/internal/infra/storage/postgres"
)

// OpenNaming connects the configured naming backend. The returned check
// probes backend reachability for the health server.
func OpenNaming(ctx context.Context, cfg *config.AppConfig) (storage.NamingRepository, health.Check, error) {
	switch cfg.Naming.Backend {
	case config.NamingRedis:
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init redis naming: %w", err)
		}
		slog.Info("Using Redis naming service")
		return redisclient.NewNamingRepo(client), client.Ping, nil

	case config.NamingPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init db: %w", err)
		}
		if cfg.Naming.Migrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("failed to migrate db: %w", err)
			}
		}
		slog.Info("Using PostgreSQL naming service")
		return postgres.NewNamingRepo(db), db.Health, nil

	default:
		slog.Info("Using Memory naming service")
		return memory.NewNamingRepo(), nil, nil
	}
}
