package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Room string `gorm:"size:20"`
}

func TestInstrumentDB(t *testing.T) {
	ctx := context.Background()
	recorder := useRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := InstrumentDB(db, sqlDB, provider.Meter("db"), DBConfig{
		TraceEnabled:    true,
		SlowQueryThresh: time.Hour,
		DBSystem:        "sqlite",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Room: "401"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	require.Len(t, rows, 1)

	assert.NotEmpty(t, recorder.Ended())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	byOp := map[string]int64{}
	var sawPool bool
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			switch metric.Name {
			case "db_query_total":
				for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
					op, _ := dp.Attributes.Value(AttrDBOperation)
					byOp[op.AsString()] += dp.Value
				}
			case "db_pool_connections_max":
				sawPool = true
			}
		}
	}
	assert.Equal(t, int64(1), byOp["INSERT"])
	assert.Equal(t, int64(1), byOp["SELECT"])
	assert.True(t, sawPool)
}

func TestDetectOperationType(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperationType("  select * from rooms"))
	assert.Equal(t, "SELECT", detectOperationType("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "DELETE", detectOperationType("DELETE FROM rooms"))
	assert.Equal(t, "OTHER", detectOperationType("PRAGMA foreign_keys = ON"))
	assert.Equal(t, "UNKNOWN", detectOperationType(""))
}
