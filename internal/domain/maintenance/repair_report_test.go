package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepairReport(t *testing.T) {
	t.Run("creates open report", func(t *testing.T) {
		date := time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC)
		r, err := NewRepairReport("張三", "401", "冷氣不冷", "開了一小時還是很熱", date)
		require.NoError(t, err)
		assert.Equal(t, RepairStatusOpen, r.Status)
		assert.Equal(t, date, r.Date)
		assert.Equal(t, "401", r.RoomNumber)
	})

	t.Run("defaults date to now", func(t *testing.T) {
		r, err := NewRepairReport("張三", "401", "漏水", "", time.Time{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), r.Date, time.Minute)
	})

	t.Run("requires issue", func(t *testing.T) {
		_, err := NewRepairReport("張三", "401", " ", "", time.Time{})
		assert.Contains(t, err.Error(), "Issue cannot be empty")
	})

	t.Run("requires room", func(t *testing.T) {
		_, err := NewRepairReport("張三", "", "漏水", "", time.Time{})
		assert.Error(t, err)
	})
}

func TestRepairReport_TransitionTo(t *testing.T) {
	r, err := NewRepairReport("張三", "401", "漏水", "", time.Time{})
	require.NoError(t, err)

	require.NoError(t, r.TransitionTo(RepairStatusInProgress))
	assert.Equal(t, RepairStatusInProgress, r.Status)
	assert.Nil(t, r.ResolvedAt)

	require.NoError(t, r.TransitionTo(RepairStatusResolved))
	assert.NotNil(t, r.ResolvedAt)

	assert.Error(t, r.TransitionTo(RepairStatusOpen))
	assert.Error(t, r.TransitionTo(RepairStatus("closed")))
}
