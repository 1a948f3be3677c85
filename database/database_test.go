package database

import (
	"context"
	"testing"

	"health-intake-backend/config"

	"go.uber.org/zap"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/intake":   "pgx5://u:p@localhost:5432/intake",
		"postgresql://u:p@localhost:5432/intake": "pgx5://u:p@localhost:5432/intake",
		"pgx5://already":                         "pgx5://already",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{
		"migrations/000001_init.up.sql", "migrations/000001_init.down.sql",
		"migrations/000002_checkout_reference.up.sql", "migrations/000002_checkout_reference.down.sql",
	} {
		if _, err := migrationsFS.ReadFile(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestConnectMemorySeedsDemoData(t *testing.T) {
	ctx := context.Background()
	conn, err := Connect(ctx, &config.Config{Database: config.DatabaseConfig{Type: "memory"}}, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Disconnect(ctx)

	if err := conn.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	diseases, _ := conn.Store.ListDiseases(ctx)
	doctors, _ := conn.Store.ListDoctors(ctx)
	if len(diseases) == 0 || len(doctors) == 0 {
		t.Fatalf("expected demo data, got %d diseases and %d doctors", len(diseases), len(doctors))
	}
}

func TestConnectUnsupportedType(t *testing.T) {
	if _, err := Connect(context.Background(), &config.Config{Database: config.DatabaseConfig{Type: "oracle"}}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for an unknown database type")
	}
}
