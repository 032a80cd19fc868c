package database

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/config"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
)

// Test configuration for local PostgreSQL
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "lrms_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewPostgresPool(context.Background(), getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read embedded migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("Expected at least 2 migrations, got %d", len(entries))
	}

	for _, entry := range entries {
		data, err := fs.ReadFile(migrations, migrationsDir+"/"+entry.Name())
		if err != nil {
			t.Fatalf("Failed to read %s: %v", entry.Name(), err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Errorf("Migration %s is missing goose annotations", entry.Name())
		}
	}
}

func TestNewPostgresPool_Success(t *testing.T) {
	db := openTestDatabase(t)

	if db.Pool == nil {
		t.Error("Expected Pool to be initialized")
	}
	if stats := db.Stats(); stats == nil || stats.MaxConns() != 5 {
		t.Errorf("Expected MaxConns 5, got %+v", stats)
	}
}

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Host = "invalid-host-that-does-not-exist"

	if _, err := NewPostgresPool(ctx, cfg); err == nil {
		t.Error("Expected error when connecting to invalid host")
	}
}

func TestPing_AfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	db.Close()
	db.Close()

	if err := db.Ping(ctx); err == nil {
		t.Error("Expected ping to fail after pool is closed")
	}
}

func TestSQLDB_SharesPool(t *testing.T) {
	db := openTestDatabase(t)

	sqlDB := db.SQLDB()
	if err := sqlDB.PingContext(context.Background()); err != nil {
		t.Fatalf("Expected sql.DB to reach the database: %v", err)
	}
	sqlDB.Close()

	// The pool must survive closing the sql.DB wrapper
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Expected pool to remain open: %v", err)
	}
}

func TestMigrator_Up(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()

	migrator, err := NewMigrator(db, logger.New("test"))
	if err != nil {
		t.Fatalf("NewMigrator failed: %v", err)
	}

	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	// A second run is a no-op
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("Second Up failed: %v", err)
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version < 2 {
		t.Errorf("Expected schema version >= 2, got %d", version)
	}

	var exists bool
	err = db.Pool.QueryRow(ctx, `SELECT to_regclass('public.owner_relations') IS NOT NULL`).Scan(&exists)
	if err != nil || !exists {
		t.Errorf("Expected owner_relations table to exist, err=%v", err)
	}
}
