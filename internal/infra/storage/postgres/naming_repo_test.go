package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/infra/storage"
)

func setupTestRepo(t *testing.T) *NamingRepo {
	t.Helper()
	url := os.Getenv("ORB_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ORB_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url, Driver: os.Getenv("ORB_TEST_DATABASE_DRIVER")})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE naming_bindings"); err != nil {
		t.Fatalf("Failed to truncate: %v", err)
	}

	repo := NewNamingRepo(db)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestNamingRepo_Postgres(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	ref := domain.Ref{Endpoint: "localhost:7700", Adapter: "company", ObjectID: "company", Lifespan: domain.LifespanPersistent}

	if err := repo.Bind(ctx, "Company", ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	ref.Endpoint = "localhost:7701"
	if err := repo.Bind(ctx, "Company", ref); err != nil {
		t.Fatalf("Rebind failed: %v", err)
	}

	got, err := repo.Resolve(ctx, "Company")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != ref {
		t.Errorf("Resolve = %+v, want %+v", got, ref)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = (%v, %v)", list, err)
	}

	if err := repo.Unbind(ctx, "Company"); err != nil {
		t.Fatalf("Unbind failed: %v", err)
	}
	if _, err := repo.Resolve(ctx, "Company"); !errors.Is(err, storage.ErrNameNotFound) {
		t.Errorf("Expected ErrNameNotFound, got %v", err)
	}
}
