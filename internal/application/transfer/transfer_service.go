package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	meteringapp "github.com/rental/backend/internal/application/metering"
	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/spreadsheet"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// maxRowErrors caps the row errors returned to the caller
const maxRowErrors = 100

// ReadingRecorder stores a batch of readings
type ReadingRecorder interface {
	RecordBatch(ctx context.Context, input meteringapp.RecordBatchInput) (*meteringapp.BatchResult, error)
}

// BillingComputer produces the billing result of a month
type BillingComputer interface {
	ComputeMonthlyBilling(ctx context.Context, month metering.Month) (*billing.Result, error)
}

// Service imports and exports rooms and readings as spreadsheets
type Service struct {
	rooms     property.RoomRepository
	readings  metering.ReadingRepository
	recorder  ReadingRecorder
	billing   BillingComputer
	events    shared.EventPublisher
	validator *spreadsheet.RowValidator
	logger    *zap.Logger
}

// NewService creates a new transfer Service. events may be nil.
func NewService(
	rooms property.RoomRepository,
	readings metering.ReadingRepository,
	recorder ReadingRecorder,
	billing BillingComputer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rooms:     rooms,
		readings:  readings,
		recorder:  recorder,
		billing:   billing,
		events:    events,
		validator: spreadsheet.NewRowValidator(),
		logger:    logger,
	}
}

// ImportRooms upserts the valid rows of a room sheet by room number.
// Invalid rows are reported and skipped.
func (s *Service) ImportRooms(ctx context.Context, r io.Reader, filename string) (*ImportResult, error) {
	session, err := identity.RequireLandlord(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "transfer", "ImportRooms")
	defer span.End()

	table, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}
	errs := spreadsheet.NewErrorCollection(maxRowErrors)
	rows, err := s.validator.RoomRows(table, errs)
	if err != nil {
		return nil, sheetError(err)
	}

	result := &ImportResult{TotalRows: len(table.Rows)}
	batch := make([]*property.Room, 0, len(rows))
	for _, row := range rows {
		room, created, err := s.roomFromRow(ctx, row)
		if err != nil {
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				return nil, err
			}
			errs.Add(spreadsheet.RowError{
				Row: row.Line, Column: spreadsheet.ColRoomNumber, Code: spreadsheet.ErrCodeRejected,
				Message: domainErr.Message, Value: row.Number,
			})
			continue
		}
		room.AssignLandlord(session.LandlordCode)
		if created {
			result.ImportedRows++
		} else {
			result.UpdatedRows++
		}
		batch = append(batch, room)
	}

	if len(batch) > 0 {
		if err := s.rooms.SaveBatch(ctx, batch); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save rooms: %w", err)
		}
		for _, room := range batch {
			s.publish(ctx, room)
		}
	}

	result.ErrorRows = result.TotalRows - result.ImportedRows - result.UpdatedRows
	result.collect(errs)
	telemetry.SetAttributes(span, telemetry.SpanAttrRows.Int(result.TotalRows))

	s.logger.Info("Room sheet imported",
		zap.String("file", filename),
		zap.Int("created", result.ImportedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("errors", result.ErrorRows))
	return result, nil
}

func (s *Service) roomFromRow(ctx context.Context, row spreadsheet.RoomRow) (*property.Room, bool, error) {
	room, err := s.rooms.FindByNumber(ctx, row.Number)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		if room, err = property.NewRoom(row.Number); err != nil {
			return nil, false, err
		}
		created = true
	default:
		return nil, false, fmt.Errorf("failed to load room %s: %w", row.Number, err)
	}

	room.SetDetails(row.RoomType, row.Note)
	err = room.SetLease(property.Lease{
		TenantName: row.TenantName,
		RentAmount: row.Rent,
		Deposit:    row.Deposit,
		StartDate:  row.StartDate,
		EndDate:    row.EndDate,
	})
	if err != nil {
		return nil, false, err
	}
	return room, created, nil
}

// ImportReadings records the valid rows of a meter sheet. Rows naming an
// unregistered room are reported and skipped.
func (s *Service) ImportReadings(ctx context.Context, r io.Reader, filename string) (*ImportResult, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "transfer", "ImportReadings")
	defer span.End()

	table, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}
	errs := spreadsheet.NewErrorCollection(maxRowErrors)
	rows, err := s.validator.ReadingRows(table, errs)
	if err != nil {
		return nil, sheetError(err)
	}

	numbers, err := s.rooms.FindAllNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	known := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		known[n] = struct{}{}
	}

	input := meteringapp.RecordBatchInput{Source: meteringapp.SourceImport}
	for _, row := range rows {
		if _, ok := known[row.Number]; !ok {
			errs.Add(spreadsheet.RowError{
				Row: row.Line, Column: spreadsheet.ColRoomNumber, Code: spreadsheet.ErrCodeRejected,
				Message: fmt.Sprintf("room %s does not exist", row.Number), Value: row.Number,
			})
			continue
		}
		input.Readings = append(input.Readings, meteringapp.RecordReadingInput{
			RoomNumber: row.Number,
			Month:      row.Month,
			Value:      row.Value,
		})
	}

	result := &ImportResult{TotalRows: len(table.Rows)}
	if len(input.Readings) > 0 {
		batch, err := s.recorder.RecordBatch(ctx, input)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.ImportedRows = batch.Created
		result.UpdatedRows = batch.Updated
		result.UnchangedRows = batch.Unchanged
	}
	result.ErrorRows = result.TotalRows - len(input.Readings)
	result.collect(errs)
	telemetry.SetAttributes(span, telemetry.SpanAttrRows.Int(result.TotalRows))

	s.logger.Info("Meter sheet imported",
		zap.String("file", filename),
		zap.Int("created", result.ImportedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("errors", result.ErrorRows))
	return result, nil
}

// ExportRooms renders every room as a workbook
func (s *Service) ExportRooms(ctx context.Context) (*File, error) {
	filter := property.RoomFilter{}
	if session, ok := identity.SessionFrom(ctx); ok {
		filter.LandlordCode = session.LandlordCode
	}
	rooms, err := s.rooms.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	data, err := spreadsheet.ExportRooms(rooms)
	if err != nil {
		return nil, err
	}
	return xlsx("rooms.xlsx", data), nil
}

// ExportReadings renders the readings of month, or every reading when month is empty
func (s *Service) ExportReadings(ctx context.Context, month string) (*File, error) {
	var (
		readings []metering.MeterReading
		name     = "readings.xlsx"
	)
	if month != "" {
		m, err := metering.ParseMonth(month)
		if err != nil {
			return nil, err
		}
		if readings, err = s.readings.FindByMonth(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to load readings: %w", err)
		}
		name = "readings-" + m.String() + ".xlsx"
	} else {
		var err error
		readings, err = s.readings.FindAll(ctx, metering.ReadingFilter{
			Filter: shared.Filter{OrderBy: "month", OrderDir: "asc"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load readings: %w", err)
		}
	}
	data, err := spreadsheet.ExportReadings(readings)
	if err != nil {
		return nil, err
	}
	return xlsx(name, data), nil
}

// ExportBilling renders the billing result of month, anomalies included
func (s *Service) ExportBilling(ctx context.Context, month string) (*File, error) {
	m, err := metering.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	result, err := s.billing.ComputeMonthlyBilling(ctx, m)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.ExportBilling(result)
	if err != nil {
		return nil, err
	}
	return xlsx("billing-"+m.String()+".xlsx", data), nil
}

// RoomTemplate returns the blank room sheet
func (s *Service) RoomTemplate() (*File, error) {
	data, err := spreadsheet.RoomTemplate()
	if err != nil {
		return nil, err
	}
	return xlsx("room-template.xlsx", data), nil
}

// ReadingTemplate returns the blank meter sheet
func (s *Service) ReadingTemplate() (*File, error) {
	data, err := spreadsheet.ReadingTemplate()
	if err != nil {
		return nil, err
	}
	return xlsx("reading-template.xlsx", data), nil
}

func (s *Service) publish(ctx context.Context, room *property.Room) {
	events := room.GetDomainEvents()
	room.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish room events", zap.String("room", room.Number), zap.Error(err))
	}
}

func readTable(r io.Reader, filename string) (*spreadsheet.Table, error) {
	table, err := spreadsheet.ReadTable(r, filename)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}
	return table, nil
}

// sheetError reports missing columns as an input error
func sheetError(err error) error {
	var missing *spreadsheet.MissingColumnsError
	if errors.As(err, &missing) {
		return shared.NewDomainError("MISSING_COLUMNS", missing.Error())
	}
	return err
}
