package spreadsheet

import (
	"sort"
	"time"

	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/property"
)

// Sheet names
const (
	SheetRooms     = "房間"
	SheetReadings  = "電錶"
	SheetBilling   = "電費"
	SheetAnomalies = "異常"
)

// Billing sheet columns
var (
	BillingHeaders = []string{ColRoomNumber, "用電度數", "電費"}
	AnomalyHeaders = []string{ColRoomNumber, "狀態", "本期月份", "本期度數", "前期月份", "前期度數", "用電度數"}
)

// Demo rows written into the blank templates
var (
	roomTemplateRow    = []any{"401", "張三", "雅房", 6000, 12000, "2024-07-01", "2025-06-30", ""}
	readingTemplateRow = []any{"401", "2024-07", 126}
)

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// ExportRooms renders rooms as a workbook using the import layout
func ExportRooms(rooms []property.Room) ([]byte, error) {
	rows := make([][]any, len(rooms))
	for i, r := range rooms {
		rows[i] = []any{
			r.Number, r.TenantName, r.RoomType,
			r.RentAmount.InexactFloat64(), r.Deposit.InexactFloat64(),
			formatDate(r.RentStartDate), formatDate(r.RentEndDate), r.Note,
		}
	}
	return singleSheet(SheetRooms, RoomHeaders, rows)
}

// ExportReadings renders readings as a workbook using the import layout
func ExportReadings(readings []metering.MeterReading) ([]byte, error) {
	rows := make([][]any, len(readings))
	for i, r := range readings {
		rows[i] = []any{r.RoomNumber, r.Month.String(), r.Value}
	}
	return singleSheet(SheetReadings, ReadingHeaders, rows)
}

// ExportBilling renders a month's result: fees per room, a total line and the excluded rooms
func ExportBilling(result *billing.Result) ([]byte, error) {
	rooms := make([]string, 0, len(result.PerRoomFee))
	for room := range result.PerRoomFee {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)

	rows := make([][]any, 0, len(rooms)+1)
	for _, room := range rooms {
		rows = append(rows, []any{room, result.Usage[room], result.PerRoomFee[room].InexactFloat64()})
	}
	rows = append(rows, []any{"合計 " + result.Month.String(), result.TotalUnits, result.TotalBill.InexactFloat64()})

	wb, err := NewWorkbook()
	if err != nil {
		return nil, err
	}
	if err := wb.AddSheet(SheetBilling, BillingHeaders, rows); err != nil {
		return nil, err
	}

	if result.HasAnomalies() {
		anomalies := make([][]any, 0, len(result.InsufficientData)+len(result.InvalidUsage))
		for _, room := range result.InsufficientData {
			anomalies = append(anomalies, []any{room, "資料不足"})
		}
		for _, a := range result.InvalidUsage {
			anomalies = append(anomalies, []any{
				a.RoomNumber, "度數倒退",
				a.CurrentMonth.String(), a.CurrentValue,
				a.PreviousMonth.String(), a.PreviousValue, a.UsedUnits,
			})
		}
		if err := wb.AddSheet(SheetAnomalies, AnomalyHeaders, anomalies); err != nil {
			return nil, err
		}
	}
	return wb.Bytes()
}

// RoomTemplate returns a blank room sheet with one example row
func RoomTemplate() ([]byte, error) {
	return singleSheet(SheetRooms, RoomHeaders, [][]any{roomTemplateRow})
}

// ReadingTemplate returns a blank meter sheet with one example row
func ReadingTemplate() ([]byte, error) {
	return singleSheet(SheetReadings, ReadingHeaders, [][]any{readingTemplateRow})
}

func singleSheet(name string, headers []string, rows [][]any) ([]byte, error) {
	wb, err := NewWorkbook()
	if err != nil {
		return nil, err
	}
	if err := wb.AddSheet(name, headers, rows); err != nil {
		return nil, err
	}
	return wb.Bytes()
}
