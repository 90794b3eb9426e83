package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/maintenance"
	"github.com/rental/backend/internal/domain/notice"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestGormRepairReportRepository(t *testing.T) {
	repo := NewGormRepairReportRepository(newSQLiteDB(t))
	ctx := context.Background()

	older, err := maintenance.NewRepairReport("Chen", "401", "Leaking tap", "kitchen sink", day(3))
	require.NoError(t, err)
	newer, err := maintenance.NewRepairReport("Wang", "403", "Broken light", "", day(10))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	reports, err := repo.FindAll(ctx, maintenance.RepairFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, newer.ID, reports[0].ID, "newest first")

	require.NoError(t, older.TransitionTo(maintenance.RepairStatusInProgress))
	require.NoError(t, repo.Save(ctx, older))

	inProgress, err := repo.FindAll(ctx, maintenance.RepairFilter{Status: maintenance.RepairStatusInProgress})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, "Leaking tap", inProgress[0].Issue)

	count, err := repo.Count(ctx, maintenance.RepairFilter{Filter: shared.Filter{Search: "light"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, newer.ID))
	_, err = repo.FindByID(ctx, newer.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
}

func TestGormAnnouncementRepository(t *testing.T) {
	repo := NewGormAnnouncementRepository(newSQLiteDB(t))
	ctx := context.Background()

	first, err := notice.NewAnnouncement("Water outage", "No water on Friday morning", day(1))
	require.NoError(t, err)
	second, err := notice.NewAnnouncement("Rent reminder", "Rent is due on the 5th", day(2))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	list, err := repo.FindAll(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Rent reminder", list[0].Title)

	require.NoError(t, first.Update("Water outage", "Rescheduled to Saturday", day(1)))
	require.NoError(t, repo.Save(ctx, first))
	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rescheduled to Saturday", got.Content)
	assert.Equal(t, 2, got.Version)

	matched, err := repo.Count(ctx, shared.Filter{Search: "saturday"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	require.NoError(t, repo.Delete(ctx, second.ID))
	remaining, err := repo.Count(ctx, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}
