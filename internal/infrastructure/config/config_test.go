package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rental/backend/internal/domain/tariff"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "rental-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "rental.db", cfg.Database.Path)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, StorageLocal, cfg.Storage.Driver)
		assert.Equal(t, MetricsExporterPrometheus, cfg.Telemetry.MetricsExporter)
		assert.Len(t, cfg.Tariff.Tiers, 3)
		assert.Equal(t, string(tariff.RoundingLargestRemainder), cfg.Tariff.Rounding)
	})

	t.Run("loads values from environment variables with RENTAL prefix", func(t *testing.T) {
		t.Setenv("RENTAL_APP_NAME", "test-app")
		t.Setenv("RENTAL_APP_PORT", "9000")
		t.Setenv("RENTAL_DATABASE_DRIVER", "postgres")
		t.Setenv("RENTAL_DATABASE_HOST", "testdb.local")
		t.Setenv("RENTAL_DATABASE_PORT", "5433")
		t.Setenv("RENTAL_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("RENTAL_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("RENTAL_REDIS_ENABLED", "true")
		t.Setenv("RENTAL_TARIFF_TIERS", "100:1.5,*:3")
		t.Setenv("RENTAL_TARIFF_SCALE", "2")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		require.Len(t, cfg.Tariff.Tiers, 2)
		assert.Equal(t, int32(2), cfg.Tariff.Scale)

		schedule, err := cfg.Tariff.Schedule()
		require.NoError(t, err)
		assert.True(t, schedule.ComputeBill(150).Equal(decimal.RequireFromString("300")))
	})

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		t.Setenv("RENTAL_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("RENTAL_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects a malformed tariff table", func(t *testing.T) {
		t.Setenv("RENTAL_TARIFF_TIERS", "330:2.10,120:3.02,*:4.41")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, tariff.ErrConfiguration)
	})

	t.Run("requires a long jwt secret in production", func(t *testing.T) {
		t.Setenv("RENTAL_APP_ENV", "production")
		t.Setenv("RENTAL_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})
}

func TestFromViper_TOMLTiers(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[tariff]
scale = 2
rounding = "truncate"

[[tariff.tiers]]
upper_bound = 120
price = "2.10"

[[tariff.tiers]]
upper_bound = 330
price = "3.02"

[[tariff.tiers]]
price = "4.41"
`)))

	cfg, err := fromViper(v)
	require.NoError(t, err)

	schedule, err := cfg.Tariff.Schedule()
	require.NoError(t, err)
	assert.Equal(t, tariff.RoundingTruncate, schedule.Rounding())
	assert.Equal(t, int32(2), schedule.Scale())
	assert.True(t, schedule.ComputeBill(150).Equal(decimal.RequireFromString("342.6")))
}

func TestLoadTariffFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tariff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scale: 0
tiers:
  - upper_bound: 120
    price: "2.10"
  - price: "3.00"
`), 0o600))

	doc, err := LoadTariffFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Tiers, 2)
	require.NotNil(t, doc.Tiers[0].UpperBound)
	assert.Equal(t, int64(120), *doc.Tiers[0].UpperBound)
	assert.Nil(t, doc.Tiers[1].UpperBound)

	t.Run("file overrides the inline table", func(t *testing.T) {
		t.Setenv("RENTAL_TARIFF_FILE", path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Len(t, cfg.Tariff.Tiers, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTariffFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestParseTierList(t *testing.T) {
	tiers, err := ParseTierList("120:2.10, 330:3.02, inf:4.41")
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.Equal(t, int64(330), *tiers[1].UpperBound)
	assert.Nil(t, tiers[2].UpperBound)
	assert.Equal(t, "4.41", tiers[2].Price)

	_, err = ParseTierList("120=2.10")
	assert.Error(t, err)

	_, err = ParseTierList("abc:2.10")
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	sqlite := DatabaseConfig{Driver: DriverSQLite, Path: "data/rental.db"}
	assert.Equal(t, "data/rental.db", sqlite.DSN())
	assert.Equal(t, "sqlite3://data/rental.db", sqlite.MigrateURL())

	pg := DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "rent",
		Password: "p@ss word",
		DBName:   "rental",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://rent:p%40ss%20word@db:5432/rental?sslmode=disable", pg.DSN())
	assert.Equal(t, pg.DSN(), pg.MigrateURL())
}
