package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rental/backend/internal/application/billing"
	maintenanceapp "github.com/rental/backend/internal/application/maintenance"
	meteringapp "github.com/rental/backend/internal/application/metering"
	noticeapp "github.com/rental/backend/internal/application/notice"
	propertyapp "github.com/rental/backend/internal/application/property"
	"github.com/rental/backend/internal/application/transfer"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/tariff"
	"github.com/rental/backend/internal/infrastructure/migration"
	"github.com/rental/backend/internal/infrastructure/persistence"
	"github.com/rental/backend/internal/interfaces/http/dto"
	"github.com/rental/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	landlord = identity.Session{
		UserID:       uuid.MustParse("7d0f3c52-1b1e-4f43-9d55-6f2f4f5b6a01"),
		Username:     "landlord",
		Role:         identity.RoleLandlord,
		LandlordCode: "AB12CD34",
	}
	tenant = identity.Session{
		UserID:       uuid.MustParse("7d0f3c52-1b1e-4f43-9d55-6f2f4f5b6a02"),
		Username:     "tenant",
		Role:         identity.RoleTenant,
		LandlordCode: "AB12CD34",
	}
)

func newTestDB(t *testing.T) *gorm.DB {
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

// flatSchedule charges 5 per unit
func flatSchedule(t *testing.T) *tariff.Schedule {
	t.Helper()
	s, err := tariff.NewSchedule([]tariff.Tier{tariff.NewOpenTier(decimal.NewFromInt(5))}, 0, "")
	require.NoError(t, err)
	return s
}

// testEnv wires the rental services on an in-memory database
type testEnv struct {
	db        *gorm.DB
	rooms     *propertyapp.RoomService
	readings  *meteringapp.ReadingService
	billing   *billingapp.BillingService
	repairs   *maintenanceapp.RepairService
	notices   *noticeapp.AnnouncementService
	transfer  *transfer.Service
	broadcast *billingapp.Broadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	roomRepo := persistence.NewGormRoomRepository(db)
	readingRepo := persistence.NewGormReadingRepository(db)

	env := &testEnv{db: db, broadcast: billingapp.NewBroadcaster(0, nil)}
	env.rooms = propertyapp.NewRoomService(roomRepo, nil, nil)
	env.readings = meteringapp.NewReadingService(readingRepo, roomRepo, nil, nil, nil)
	env.billing = billingapp.NewBillingService(roomRepo, readingRepo, flatSchedule(t))
	env.repairs = maintenanceapp.NewRepairService(persistence.NewGormRepairReportRepository(db), roomRepo, nil)
	env.notices = noticeapp.NewAnnouncementService(persistence.NewGormAnnouncementRepository(db), nil)
	env.transfer = transfer.NewService(roomRepo, readingRepo, env.readings, env.billing, nil, nil)
	return env
}

// as attaches session the way the JWT middleware does
func as(session identity.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, session.UserID.String())
		c.Set(middleware.JWTRoleKey, string(session.Role))
		ctx := identity.WithSession(c.Request.Context(), session)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newEngine(session *identity.Session) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	if session != nil {
		engine.Use(as(*session))
	}
	return engine
}

func doJSON(engine http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func seedRooms(t *testing.T, env *testEnv, numbers ...string) {
	t.Helper()
	ctx := identity.WithSession(context.Background(), landlord)
	for _, n := range numbers {
		_, err := env.rooms.Create(ctx, propertyapp.CreateRoomInput{Number: n})
		require.NoError(t, err)
	}
}

func seedReadings(t *testing.T, env *testEnv, readings ...meteringapp.RecordReadingInput) {
	t.Helper()
	ctx := identity.WithSession(context.Background(), landlord)
	_, err := env.readings.RecordBatch(ctx, meteringapp.RecordBatchInput{Readings: readings})
	require.NoError(t, err)
}

// apiEngine mounts the rental handlers the way the router does, without the role guards
func apiEngine(env *testEnv, session *identity.Session) *gin.Engine {
	engine := newEngine(session)

	rooms := NewRoomHandler(env.rooms)
	engine.POST("/rooms", rooms.Create)
	engine.GET("/rooms", rooms.List)
	engine.GET("/rooms/:number", rooms.Get)
	engine.PUT("/rooms/:number", rooms.Update)
	engine.POST("/rooms/:number/vacate", rooms.Vacate)
	engine.DELETE("/rooms/:number", rooms.Delete)

	readings := NewReadingHandler(env.readings)
	engine.GET("/rooms/:number/readings", readings.History)
	engine.GET("/rooms/:number/readings/last-two", readings.LastTwo)
	engine.GET("/rooms/:number/readings/:month", readings.Get)
	engine.PUT("/rooms/:number/readings/:month", readings.Record)
	engine.DELETE("/rooms/:number/readings/:month", readings.Delete)
	engine.POST("/readings/batch", readings.RecordBatch)
	engine.GET("/readings", readings.List)
	engine.GET("/readings/:month", readings.ListForMonth)

	billing := NewBillingHandler(env.billing)
	engine.GET("/billing/tariff", billing.Tariff)
	engine.GET("/billing/:month", billing.GetMonth)

	repairs := NewRepairHandler(env.repairs)
	engine.POST("/repairs", repairs.Submit)
	engine.GET("/repairs", repairs.List)
	engine.GET("/repairs/:id", repairs.Get)
	engine.PUT("/repairs/:id/status", repairs.UpdateStatus)
	engine.DELETE("/repairs/:id", repairs.Delete)

	notices := NewAnnouncementHandler(env.notices)
	engine.POST("/announcements", notices.Create)
	engine.GET("/announcements", notices.List)
	engine.GET("/announcements/:id", notices.Get)
	engine.PUT("/announcements/:id", notices.Update)
	engine.DELETE("/announcements/:id", notices.Delete)

	transfers := NewTransferHandler(env.transfer)
	engine.POST("/import/rooms", transfers.ImportRooms)
	engine.POST("/import/readings", transfers.ImportReadings)
	engine.GET("/export/rooms", transfers.ExportRooms)
	engine.GET("/export/readings", transfers.ExportReadings)
	engine.GET("/billing/:month/export", transfers.ExportBilling)
	engine.GET("/templates/rooms", transfers.RoomTemplate)
	engine.GET("/templates/readings", transfers.ReadingTemplate)
	return engine
}

func decodeMeta(t *testing.T, w *httptest.ResponseRecorder, out *dto.Response) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	require.NotNil(t, out.Meta, w.Body.String())
}
