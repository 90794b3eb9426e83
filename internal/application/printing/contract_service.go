package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	infra "github.com/rental/backend/internal/infrastructure/printing"
	"github.com/rental/backend/internal/infrastructure/storage"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	contractContentType = "application/pdf"
	contractFooter      = `<div style="font-size:8px;width:100%;text-align:center;"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`
)

// ContractService renders lease contracts to PDF and stores them
type ContractService struct {
	rooms    property.RoomRepository
	users    identity.UserRepository
	template *infra.ContractTemplate
	renderer infra.PDFRenderer
	store    storage.ObjectStore
	logger   *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(
	rooms property.RoomRepository,
	users identity.UserRepository,
	template *infra.ContractTemplate,
	renderer infra.PDFRenderer,
	store storage.ObjectStore,
	logger *zap.Logger,
) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{
		rooms:    rooms,
		users:    users,
		template: template,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

// Generate renders the lease contract of an occupied room and returns where it was stored
func (s *ContractService) Generate(ctx context.Context, roomNumber string) (*ContractDocument, error) {
	session, err := identity.RequireLandlord(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "Generate",
		telemetry.SpanAttrRoomNumber.String(roomNumber))
	defer span.End()

	room, err := s.rooms.FindByNumber(ctx, strings.TrimSpace(roomNumber))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ROOM_NOT_FOUND", "Room "+roomNumber+" does not exist")
		}
		return nil, err
	}
	if room.TenantName == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "Room "+room.Number+" has no tenant")
	}

	data := infra.ContractData{
		RoomNumber:   room.Number,
		RoomType:     room.RoomType,
		Note:         room.Note,
		TenantName:   room.TenantName,
		LandlordName: session.Username,
		LandlordCode: session.LandlordCode,
		RentAmount:   room.RentAmount,
		Deposit:      room.Deposit,
		StartDate:    room.RentStartDate,
		EndDate:      room.RentEndDate,
		TermMonths:   room.RentDuration(),
		IssuedAt:     time.Now(),
	}
	if landlord, err := s.users.FindByID(ctx, session.UserID); err == nil {
		data.LandlordPhone = landlord.Phone
	} else {
		s.logger.Warn("Landlord contact unavailable for contract", zap.Error(err))
	}

	html, err := s.template.RenderHTML(data)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	pdf, err := s.renderer.Render(ctx, &infra.RenderRequest{
		HTML:       html,
		Title:      "房屋租賃契約 " + room.Number,
		Margins:    infra.DefaultMargins(),
		FooterHTML: contractFooter,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Contract rendering failed", zap.String("room", room.Number), zap.Error(err))
		return nil, renderError(err)
	}

	key := contractKey(room.Number, data.IssuedAt)
	if err := s.store.Put(ctx, key, pdf.PDFData, contractContentType); err != nil {
		return nil, fmt.Errorf("failed to store contract: %w", err)
	}
	url, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contract URL: %w", err)
	}

	s.logger.Info("Lease contract generated",
		zap.String("room", room.Number),
		zap.String("key", key),
		zap.Int("pages", pdf.PageCount),
		zap.Duration("render_duration", pdf.RenderDuration))

	return &ContractDocument{
		RoomNumber:  room.Number,
		Key:         key,
		URL:         url,
		PageCount:   pdf.PageCount,
		Size:        len(pdf.PDFData),
		RenderTime:  pdf.RenderDuration,
		GeneratedAt: data.IssuedAt,
		Data:        pdf.PDFData,
	}, nil
}

func contractKey(roomNumber string, at time.Time) string {
	safe := strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(roomNumber)
	return fmt.Sprintf("contracts/%s/%s.pdf", safe, at.Format("20060102-150405"))
}

// renderError exposes a disabled renderer as a domain error; other failures stay internal
func renderError(err error) error {
	var re *infra.RenderError
	if errors.As(err, &re) && re.Code == infra.ErrCodeDisabled {
		return shared.NewDomainError(infra.ErrCodeDisabled, re.Message)
	}
	return err
}
