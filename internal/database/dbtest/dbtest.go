// Package dbtest opens isolated in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/database"
	"studiohub/internal/domain"
)

var seq atomic.Int64

// New returns a migrated in-memory SQLite database unique to the test.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_time_format=sqlite", name, seq.Add(1))

	db, err := database.Connect(dsn, zap.NewNop())
	if err != nil {
		tb.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(context.Background(), db, zap.NewNop(), domain.Models()...); err != nil {
		tb.Fatalf("failed to migrate db: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
