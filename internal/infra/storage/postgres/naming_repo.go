package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/infra/storage"
	"github.com/vietddude/orb/internal/metrics"
)

// NamingRepo implements storage.NamingRepository using PostgreSQL.
type NamingRepo struct {
	db *DB
}

// NewNamingRepo creates a new PostgreSQL naming repository.
func NewNamingRepo(db *DB) *NamingRepo {
	return &NamingRepo{db: db}
}

type namingRow struct {
	Name      string    `db:"name"`
	Endpoint  string    `db:"endpoint"`
	Adapter   string    `db:"adapter"`
	ObjectID  string    `db:"object_id"`
	Lifespan  string    `db:"lifespan"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row namingRow) ref() domain.Ref {
	return domain.Ref{
		Endpoint: row.Endpoint,
		Adapter:  row.Adapter,
		ObjectID: domain.ObjectID(row.ObjectID),
		Lifespan: domain.Lifespan(row.Lifespan),
	}
}

const upsertBinding = `
INSERT INTO naming_bindings (name, endpoint, adapter, object_id, lifespan, updated_at)
VALUES (:name, :endpoint, :adapter, :object_id, :lifespan, :updated_at)
ON CONFLICT (name) DO UPDATE SET
    endpoint   = EXCLUDED.endpoint,
    adapter    = EXCLUDED.adapter,
    object_id  = EXCLUDED.object_id,
    lifespan   = EXCLUDED.lifespan,
    updated_at = EXCLUDED.updated_at`

// Bind publishes ref under name, replacing any previous binding.
func (r *NamingRepo) Bind(ctx context.Context, name string, ref domain.Ref) error {
	if err := storage.ValidateBinding(name, ref); err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("postgres", "bind", "rejected").Inc()
		return err
	}

	_, err := r.db.NamedExecContext(ctx, upsertBinding, namingRow{
		Name:      name,
		Endpoint:  ref.Endpoint,
		Adapter:   ref.Adapter,
		ObjectID:  string(ref.ObjectID),
		Lifespan:  string(ref.Lifespan),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("postgres", "bind", "error").Inc()
		return fmt.Errorf("failed to bind %s: %w", name, err)
	}
	metrics.NamingOperationsTotal.WithLabelValues("postgres", "bind", "ok").Inc()
	return nil
}

// Resolve returns the reference bound to name.
func (r *NamingRepo) Resolve(ctx context.Context, name string) (domain.Ref, error) {
	var row namingRow
	err := r.db.GetContext(ctx, &row,
		`SELECT name, endpoint, adapter, object_id, lifespan, updated_at FROM naming_bindings WHERE name = $1`,
		name)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.NamingOperationsTotal.WithLabelValues("postgres", "resolve", "not_found").Inc()
		return domain.Ref{}, fmt.Errorf("%w: %s", storage.ErrNameNotFound, name)
	}
	if err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("postgres", "resolve", "error").Inc()
		return domain.Ref{}, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	metrics.NamingOperationsTotal.WithLabelValues("postgres", "resolve", "ok").Inc()
	return row.ref(), nil
}

// Unbind removes the binding for name.
func (r *NamingRepo) Unbind(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM naming_bindings WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to unbind %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to unbind %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNameNotFound, name)
	}
	metrics.NamingOperationsTotal.WithLabelValues("postgres", "unbind", "ok").Inc()
	return nil
}

// List returns every binding ordered by name.
func (r *NamingRepo) List(ctx context.Context) ([]storage.Binding, error) {
	var rows []namingRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT name, endpoint, adapter, object_id, lifespan, updated_at FROM naming_bindings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}

	bindings := make([]storage.Binding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, storage.Binding{Name: row.Name, Ref: row.ref(), UpdatedAt: row.UpdatedAt})
	}
	return bindings, nil
}

// Close closes the database connection.
func (r *NamingRepo) Close() error {
	return r.db.Close()
}
