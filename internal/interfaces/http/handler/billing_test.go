package handler

import (
	"net/http"
	"testing"

	meteringapp "github.com/rental/backend/internal/application/metering"
	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingHandler_RecordAndQuery(t *testing.T) {
	env := newTestEnv(t)
	seedRooms(t, env, "401")
	engine := apiEngine(env, &landlord)

	w := doJSON(engine, http.MethodPut, "/rooms/401/readings/2024-06", map[string]any{"value": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// short form is normalized
	w = doJSON(engine, http.MethodPut, "/rooms/401/readings/2024-7", map[string]any{"value": 150})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reading ReadingResponse
	decodeData(t, w, &reading)
	assert.Equal(t, "2024-07", reading.Month)
	assert.Equal(t, int64(150), reading.Value)

	w = doJSON(engine, http.MethodGet, "/rooms/401/readings/last-two", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var lastTwo LastTwoResponse
	decodeData(t, w, &lastTwo)
	require.NotNil(t, lastTwo.UsedUnits)
	assert.Equal(t, int64(50), *lastTwo.UsedUnits)
	assert.Equal(t, "2024-07", lastTwo.Current.Month)
	assert.Equal(t, "2024-06", lastTwo.Previous.Month)
	assert.False(t, lastTwo.InvalidUsage)

	w = doJSON(engine, http.MethodGet, "/rooms/401/readings", nil)
	var history []ReadingResponse
	decodeData(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-07", history[0].Month)

	w = doJSON(engine, http.MethodGet, "/readings?room=401&from=2024-07", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page []ReadingResponse
	decodeData(t, w, &page)
	require.Len(t, page, 1)
	assert.Equal(t, int64(150), page[0].Value)

	t.Run("negative value", func(t *testing.T) {
		w := doJSON(engine, http.MethodPut, "/rooms/401/readings/2024-08", map[string]any{"value": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing value", func(t *testing.T) {
		w := doJSON(engine, http.MethodPut, "/rooms/401/readings/2024-08", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad month", func(t *testing.T) {
		w := doJSON(engine, http.MethodPut, "/rooms/401/readings/July", map[string]any{"value": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidationFormat, decodeError(t, w).Code)
	})

	t.Run("unknown room", func(t *testing.T) {
		w := doJSON(engine, http.MethodPut, "/rooms/999/readings/2024-08", map[string]any{"value": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = doJSON(engine, http.MethodDelete, "/rooms/401/readings/2024-07", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(engine, http.MethodGet, "/rooms/401/readings/2024-07", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadingHandler_RecordBatch(t *testing.T) {
	env := newTestEnv(t)
	seedRooms(t, env, "401", "402")
	engine := apiEngine(env, &landlord)

	body := map[string]any{"readings": []map[string]any{
		{"room_number": "401", "month": "2024-06", "value": 100},
		{"room_number": "402", "month": "2024/6", "value": 200},
	}}
	w := doJSON(engine, http.MethodPost, "/readings/batch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result meteringapp.BatchResult
	decodeData(t, w, &result)
	assert.Equal(t, 2, result.Created)

	body["readings"] = []map[string]any{
		{"room_number": "401", "month": "2024-06", "value": 100},
		{"room_number": "402", "month": "2024-06", "value": 210},
	}
	w = doJSON(engine, http.MethodPost, "/readings/batch", body)
	decodeData(t, w, &result)
	assert.Equal(t, meteringapp.BatchResult{Updated: 1, Unchanged: 1}, result)

	w = doJSON(engine, http.MethodGet, "/readings/2024-06", nil)
	var list []ReadingResponse
	decodeData(t, w, &list)
	require.Len(t, list, 2)

	t.Run("unknown room rejects the whole batch", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/readings/batch", map[string]any{"readings": []map[string]any{
			{"room_number": "401", "month": "2024-07", "value": 150},
			{"room_number": "999", "month": "2024-07", "value": 1},
		}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(engine, http.MethodGet, "/readings/2024-07", nil)
		var list []ReadingResponse
		decodeData(t, w, &list)
		assert.Empty(t, list)
	})

	t.Run("invalid month in entry", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/readings/batch", map[string]any{"readings": []map[string]any{
			{"room_number": "401", "month": "24-13", "value": 1},
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		require.NotEmpty(t, errInfo.Details)
		assert.Equal(t, "Must be a month in YYYY-MM format", errInfo.Details[0].Message)
	})

	t.Run("empty batch", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/readings/batch", map[string]any{"readings": []map[string]any{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReadingHandler_TenantCannotRecord(t *testing.T) {
	env := newTestEnv(t)
	seedRooms(t, env, "401")
	seedReadings(t, env, meteringapp.RecordReadingInput{RoomNumber: "401", Month: "2024-06", Value: 100})
	engine := apiEngine(env, &tenant)

	w := doJSON(engine, http.MethodPut, "/rooms/401/readings/2024-07", map[string]any{"value": 150})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(engine, http.MethodDelete, "/rooms/401/readings/2024-06", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(engine, http.MethodGet, "/rooms/401/readings/2024-06", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBillingHandler_GetMonth(t *testing.T) {
	env := newTestEnv(t)
	seedRooms(t, env, "401", "402", "403", "404")
	seedReadings(t, env,
		meteringapp.RecordReadingInput{RoomNumber: "401", Month: "2024-06", Value: 100},
		meteringapp.RecordReadingInput{RoomNumber: "402", Month: "2024-06", Value: 200},
		meteringapp.RecordReadingInput{RoomNumber: "404", Month: "2024-06", Value: 500},
		meteringapp.RecordReadingInput{RoomNumber: "401", Month: "2024-07", Value: 150},
		meteringapp.RecordReadingInput{RoomNumber: "402", Month: "2024-07", Value: 260},
		meteringapp.RecordReadingInput{RoomNumber: "403", Month: "2024-07", Value: 80},
		meteringapp.RecordReadingInput{RoomNumber: "404", Month: "2024-07", Value: 480},
	)
	engine := apiEngine(env, &tenant)

	w := doJSON(engine, http.MethodGet, "/billing/2024-07", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result billing.Result
	decodeData(t, w, &result)
	assert.Equal(t, "2024-07", result.Month.String())
	assert.Equal(t, int64(110), result.TotalUnits)
	assert.True(t, decimal.NewFromInt(550).Equal(result.TotalBill), result.TotalBill.String())
	assert.Equal(t, map[string]int64{"401": 50, "402": 60}, result.Usage)
	assert.True(t, decimal.NewFromInt(250).Equal(result.PerRoomFee["401"]))
	assert.True(t, decimal.NewFromInt(300).Equal(result.PerRoomFee["402"]))
	assert.Equal(t, []string{"403"}, result.InsufficientData)
	require.Len(t, result.InvalidUsage, 1)
	assert.Equal(t, "404", result.InvalidUsage[0].RoomNumber)
	assert.Equal(t, int64(-20), result.InvalidUsage[0].UsedUnits)

	t.Run("first month has no previous readings", func(t *testing.T) {
		w := doJSON(engine, http.MethodGet, "/billing/2024-06", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var first billing.Result
		decodeData(t, w, &first)
		assert.Zero(t, first.TotalUnits)
		assert.True(t, first.TotalBill.IsZero())
		assert.ElementsMatch(t, []string{"401", "402", "403", "404"}, first.InsufficientData)
	})

	t.Run("malformed month", func(t *testing.T) {
		w := doJSON(engine, http.MethodGet, "/billing/2024-13", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBillingHandler_Tariff(t *testing.T) {
	env := newTestEnv(t)
	engine := apiEngine(env, &tenant)

	w := doJSON(engine, http.MethodGet, "/billing/tariff", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info TariffResponse
	decodeData(t, w, &info)
	require.Len(t, info.Tiers, 1)
	assert.Nil(t, info.Tiers[0].UpperBound)
	assert.Equal(t, "largest_remainder", info.Rounding)
	assert.Nil(t, info.Quote)

	w = doJSON(engine, http.MethodGet, "/billing/tariff?units=10", nil)
	decodeData(t, w, &info)
	require.NotNil(t, info.Quote)
	assert.True(t, decimal.NewFromInt(50).Equal(info.Quote.TotalBill))

	w = doJSON(engine, http.MethodGet, "/billing/tariff?units=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(engine, http.MethodGet, "/billing/tariff?units=-5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
