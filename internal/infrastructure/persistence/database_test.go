package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"in memory", ":memory:", ":memory:"},
		{"explicit params kept", "rental.db?_foreign_keys=off", "rental.db?_foreign_keys=off"},
		{"file gets pragmas", "data/rental.db", "data/rental.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}

func TestNewDatabase_SQLiteMemory(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, db.Driver())
	assert.NoError(t, db.Ping(context.Background()))

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestNewDatabase_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rental.db")

	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.DB.Exec("CREATE TABLE smoke (id INTEGER PRIMARY KEY)").Error)
	assert.FileExists(t, path)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, `unsupported database driver "mysql"`)
}

func TestNewDatabase_WithLogger(t *testing.T) {
	db, err := NewDatabase(
		&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		WithLogger(gormlogger.Discard),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, gormlogger.Discard, db.DB.Logger)
}

// newMockDatabase wraps a sqlmock connection behind the postgres dialector
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, driver: config.DriverPostgres}, mock
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing()

		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("server gone", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		assert.ErrorContains(t, db.Ping(context.Background()), "connection refused")
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock := newMockDatabase(t)
	mock.ExpectClose()

	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, config.DriverPostgres, db.Driver())
}
