// Package repotest opens a migrated in-memory SQLite repository for tests.
package repotest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/core-coin/custos/internal/repository"
	"github.com/core-coin/custos/pkg/logger"
)

var dbCounter atomic.Int64

// New returns a repository backed by a private in-memory database. The
// database is closed when the test ends.
func New(t testing.TB) *repository.PostgresDB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbCounter.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(sqlDB, "sqlite3", logger.NewNop()))
	return repository.NewRepository(conn, logger.NewNop())
}
