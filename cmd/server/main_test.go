package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/item-catalog/internal/config"
	"github.com/vyrodovalexey/item-catalog/internal/db"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zapcore.Level
	}{
		{"debug level", "debug", zapcore.DebugLevel},
		{"info level", "info", zapcore.InfoLevel},
		{"warn level", "warn", zapcore.WarnLevel},
		{"error level", "error", zapcore.ErrorLevel},
		{"invalid level defaults to info", "invalid", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			logger, err := initLogger(tt.level)

			// Assert
			if err != nil {
				t.Fatalf("initLogger() error = %v", err)
			}
			if logger == nil {
				t.Fatal("initLogger() returned nil logger")
			}
			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("level %s should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("level %s should be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestReadinessPinger(t *testing.T) {
	// Arrange
	sqlStore, err := store.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "items.sqlite3"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer closeStore(sqlStore, zap.NewNop())

	// Act
	memoryPinger := readinessPinger(store.NewMemoryStore())
	sqlPinger := readinessPinger(sqlStore)

	// Assert
	if memoryPinger != nil {
		t.Error("memory store should not provide a readiness check")
	}
	if sqlPinger == nil {
		t.Error("SQL store should provide a readiness check")
	}
}

func TestCloseStore_MemoryStoreIsNoop(t *testing.T) {
	closeStore(store.NewMemoryStore(), zap.NewNop())
}

func testConfig(driver, dsn string) *config.Config {
	return &config.Config{
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		CORSOrigins:     []string{"*"},
		StorageDriver:   driver,
		StorageDSN:      dsn,
	}
}

func TestRun_StopsWhenContextCanceled(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	cfg := testConfig(db.DriverSQLite, filepath.Join(t.TempDir(), "items.sqlite3"))

	// Act
	err := run(ctx, cfg, zap.NewNop())

	// Assert
	if err != nil {
		t.Errorf("run() error = %v, want nil", err)
	}
}

func TestRun_UnknownStorageDriver(t *testing.T) {
	// Act
	err := run(context.Background(), testConfig("postgres", ""), zap.NewNop())

	// Assert
	if err == nil {
		t.Fatal("run() should fail for an unknown storage driver")
	}
}
