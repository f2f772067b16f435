// Package testdb opens migrated in-memory stores for tests.
package testdb

import (
	"testing"

	"go-sales-ledger/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so all queries see the same memory
// database; transactions therefore run serially, as they would per row
// under postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := database.Config(nil)
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), cfg)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}
