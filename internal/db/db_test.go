package db

import (
	"path/filepath"
	"testing"

	"github.com/Chamindu77/SFBS-Backend/internal/config"
)

func TestNewGormDB_SQLite(t *testing.T) {
	cfg := &config.DBConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "sfbs.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	gdb, err := NewGormDB(cfg)
	if err != nil {
		t.Fatalf("NewGormDB: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("DB(): %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", got)
	}
	if gdb.Config.NowFunc().Location().String() != "UTC" {
		t.Fatalf("NowFunc must return UTC")
	}
}
