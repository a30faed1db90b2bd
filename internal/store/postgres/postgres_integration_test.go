package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/harborpost/harborpost/internal/store"
	"github.com/harborpost/harborpost/internal/store/storetest"
)

// makePGStore provisions a throwaway Postgres. An explicit DSN wins; without
// one a container is started when integration tests are enabled.
func makePGStore(t *testing.T) store.Store {
	t.Helper()

	dsn := os.Getenv("HARBORPOST_POSTGRES_TEST_DSN")
	if dsn == "" {
		if os.Getenv("HARBORPOST_INTEGRATION") == "" {
			t.Skip("HARBORPOST_POSTGRES_TEST_DSN not set and HARBORPOST_INTEGRATION disabled; skipping postgres store integration test")
		}
		dsn = startPostgresContainer(t)
	}

	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("postgres bootstrap: %v", err)
	}
	return NewWithDB(db)
}

func startPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "harborpost",
			"POSTGRES_PASSWORD": "harborpost",
			"POSTGRES_DB":       "harborpost_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://harborpost:harborpost@%s:%s/harborpost_test?sslmode=disable", host, port.Port())
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
