package migration

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db := openSQLite(t)

	m, err := New(db, DriverSQLite, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	for _, table := range []string{"users", "rooms", "meter_readings", "repair_reports", "announcements"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// Running again is a no-op
	require.NoError(t, m.Up())

	_, err = db.Exec(`INSERT INTO meter_readings (id, room_number, month, value) VALUES ('a', '401', '2024-07', 10)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO meter_readings (id, room_number, month, value) VALUES ('b', '401', '2024-07', 12)`)
	assert.Error(t, err, "room and month are unique")
	_, err = db.Exec(`INSERT INTO meter_readings (id, room_number, month, value) VALUES ('c', '402', '2024-07', -1)`)
	assert.Error(t, err, "negative readings are rejected")

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "meter_readings"))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	db := openSQLite(t)
	defer db.Close()

	_, err := New(db, "oracle", zap.NewNop())
	assert.Error(t, err)
}
