package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/infra/storage"
	"github.com/vietddude/orb/internal/metrics"
)

// NamingRepo implements storage.NamingRepository using a Redis hash
// (field = name, value = JSON binding).
type NamingRepo struct {
	client *Client
}

// NewNamingRepo creates a new Redis-backed naming repository.
func NewNamingRepo(client *Client) *NamingRepo {
	return &NamingRepo{client: client}
}

// Bind publishes ref under name, replacing any previous binding.
func (r *NamingRepo) Bind(ctx context.Context, name string, ref domain.Ref) error {
	if err := storage.ValidateBinding(name, ref); err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("redis", "bind", "rejected").Inc()
		return err
	}

	data, err := json.Marshal(storage.Binding{Name: name, Ref: ref, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal binding: %w", err)
	}
	if err := r.client.rdb.HSet(ctx, r.client.namingKey(), name, data).Err(); err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("redis", "bind", "error").Inc()
		return fmt.Errorf("hset failed: %w", err)
	}
	metrics.NamingOperationsTotal.WithLabelValues("redis", "bind", "ok").Inc()
	return nil
}

// Resolve returns the reference bound to name.
func (r *NamingRepo) Resolve(ctx context.Context, name string) (domain.Ref, error) {
	data, err := r.client.rdb.HGet(ctx, r.client.namingKey(), name).Bytes()
	if err == redis.Nil {
		metrics.NamingOperationsTotal.WithLabelValues("redis", "resolve", "not_found").Inc()
		return domain.Ref{}, fmt.Errorf("%w: %s", storage.ErrNameNotFound, name)
	}
	if err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("redis", "resolve", "error").Inc()
		return domain.Ref{}, fmt.Errorf("hget failed: %w", err)
	}

	var b storage.Binding
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Ref{}, fmt.Errorf("failed to unmarshal binding: %w", err)
	}
	metrics.NamingOperationsTotal.WithLabelValues("redis", "resolve", "ok").Inc()
	return b.Ref, nil
}

// Unbind removes the binding for name.
func (r *NamingRepo) Unbind(ctx context.Context, name string) error {
	n, err := r.client.rdb.HDel(ctx, r.client.namingKey(), name).Result()
	if err != nil {
		return fmt.Errorf("hdel failed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNameNotFound, name)
	}
	metrics.NamingOperationsTotal.WithLabelValues("redis", "unbind", "ok").Inc()
	return nil
}

// List returns every binding ordered by name.
func (r *NamingRepo) List(ctx context.Context) ([]storage.Binding, error) {
	all, err := r.client.rdb.HGetAll(ctx, r.client.namingKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}

	bindings := make([]storage.Binding, 0, len(all))
	for _, raw := range all {
		var b storage.Binding
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			continue
		}
		bindings = append(bindings, b)
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Name < bindings[j].Name })
	return bindings, nil
}

// Close closes the underlying client.
func (r *NamingRepo) Close() error {
	return r.client.Close()
}
