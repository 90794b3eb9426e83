package persistence

import (
	"testing"

	"github.com/rental/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens a private in-memory database with the embedded schema applied
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migration.DriverSQLite, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}
