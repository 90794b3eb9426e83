package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/maintenance"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepairReportRepository is a mock implementation of maintenance.RepairReportRepository
type MockRepairReportRepository struct {
	mock.Mock
}

func (m *MockRepairReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*maintenance.RepairReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*maintenance.RepairReport), args.Error(1)
}

func (m *MockRepairReportRepository) FindAll(ctx context.Context, filter maintenance.RepairFilter) ([]maintenance.RepairReport, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]maintenance.RepairReport), args.Error(1)
}

func (m *MockRepairReportRepository) Count(ctx context.Context, filter maintenance.RepairFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepairReportRepository) Save(ctx context.Context, report *maintenance.RepairReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockRepairReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func tenantCtx() context.Context {
	return identity.WithSession(context.Background(), identity.Session{
		UserID: uuid.New(), Username: "chen", Role: identity.RoleTenant,
	})
}

func landlordCtx() context.Context {
	return identity.WithSession(context.Background(), identity.Session{
		UserID: uuid.New(), Username: "landlord", Role: identity.RoleLandlord, LandlordCode: "AB12CD34",
	})
}

func openReport(t *testing.T) *maintenance.RepairReport {
	t.Helper()
	r, err := maintenance.NewRepairReport("chen", "401", "Leaking tap", "", time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func TestRepairService_Submit(t *testing.T) {
	reports := new(MockRepairReportRepository)
	rooms := new(MockRoomRepository)
	svc := NewRepairService(reports, rooms, nil)
	ctx := tenantCtx()

	rooms.On("ExistsByNumber", ctx, "401").Return(true, nil)
	reports.On("Save", ctx, mock.AnythingOfType("*maintenance.RepairReport")).Return(nil)

	report, err := svc.Submit(ctx, SubmitRepairInput{RoomNumber: "401", Issue: "Leaking tap"})
	require.NoError(t, err)
	assert.Equal(t, "chen", report.TenantName)
	assert.Equal(t, maintenance.RepairStatusOpen, report.Status)
	assert.False(t, report.Date.IsZero())
}

func TestRepairService_Submit_Rejections(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		svc := NewRepairService(new(MockRepairReportRepository), new(MockRoomRepository), nil)
		_, err := svc.Submit(context.Background(), SubmitRepairInput{RoomNumber: "401", Issue: "x"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("unknown room", func(t *testing.T) {
		rooms := new(MockRoomRepository)
		svc := NewRepairService(new(MockRepairReportRepository), rooms, nil)
		ctx := tenantCtx()
		rooms.On("ExistsByNumber", ctx, "999").Return(false, nil)

		_, err := svc.Submit(ctx, SubmitRepairInput{RoomNumber: "999", Issue: "x"})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ROOM_NOT_FOUND", domainErr.Code)
	})
}

func TestRepairService_List(t *testing.T) {
	reports := new(MockRepairReportRepository)
	svc := NewRepairService(reports, new(MockRoomRepository), nil)
	ctx := tenantCtx()

	reports.On("FindAll", ctx, mock.MatchedBy(func(f maintenance.RepairFilter) bool {
		return f.RoomNumber == "401" && f.Status == maintenance.RepairStatusOpen && f.PageSize == 20
	})).Return([]maintenance.RepairReport{*openReport(t)}, nil)
	reports.On("Count", ctx, mock.Anything).Return(int64(1), nil)

	page, err := svc.List(ctx, ListRepairsInput{RoomNumber: "401", Status: maintenance.RepairStatusOpen})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = svc.List(ctx, ListRepairsInput{Status: "closed"})
	assert.Error(t, err)
}

func TestRepairService_UpdateStatus(t *testing.T) {
	reports := new(MockRepairReportRepository)
	svc := NewRepairService(reports, new(MockRoomRepository), nil)
	report := openReport(t)

	t.Run("tenants cannot change status", func(t *testing.T) {
		_, err := svc.UpdateStatus(tenantCtx(), report.ID, maintenance.RepairStatusResolved)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("landlord resolves", func(t *testing.T) {
		ctx := landlordCtx()
		reports.On("FindByID", ctx, report.ID).Return(report, nil)
		reports.On("Save", ctx, report).Return(nil)

		updated, err := svc.UpdateStatus(ctx, report.ID, maintenance.RepairStatusResolved)
		require.NoError(t, err)
		assert.Equal(t, maintenance.RepairStatusResolved, updated.Status)
		assert.NotNil(t, updated.ResolvedAt)

		_, err = svc.UpdateStatus(ctx, report.ID, maintenance.RepairStatusOpen)
		assert.Error(t, err)
	})
}

func TestRepairService_Delete(t *testing.T) {
	reports := new(MockRepairReportRepository)
	svc := NewRepairService(reports, new(MockRoomRepository), nil)
	ctx := landlordCtx()
	missing := uuid.New()

	reports.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	err := svc.Delete(ctx, missing)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "REPAIR_NOT_FOUND", domainErr.Code)
	reports.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
