package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/floortrack/floortrack/internal/storage"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrNoRows means no dispatched products fell inside the requested window.
var ErrNoRows = errors.New("no dispatched products found for the selected date range")

const sheetName = "Dispatched Products Report"

// Store is the storage slice the report service needs.
type Store interface {
	ListPendingDispatches(ctx context.Context, start, end time.Time) ([]storage.OperatorProductUpdate, error)
	CreateReportDownload(ctx context.Context, reportName string) error
}

// Service builds the dispatched-products spreadsheet from the
// finished-goods read model.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Name returns the display name for a report type.
func Name(reportType string) string {
	title := strings.ToUpper(reportType[:1]) + reportType[1:]
	return title + " Dispatched Products Report"
}

// Filename returns the attachment filename for a report type.
func Filename(reportType string) string {
	return strings.ReplaceAll(Name(reportType), " ", "_") + ".xlsx"
}

// Generate resolves the date window, collects pending-dispatch rows and
// renders the spreadsheet. The download is logged on success.
func (s *Service) Generate(ctx context.Context, reportType, startDate, endDate string) ([]byte, error) {
	start, end, err := Range(reportType, startDate, endDate, time.Now())
	if err != nil {
		return nil, err
	}

	rows, err := s.store.ListPendingDispatches(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	data, err := BuildWorkbook(rows)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateReportDownload(ctx, Name(reportType)); err != nil {
		// The artifact is already built; losing the log entry is not
		// worth failing the download.
		s.logger.Warn("Failed to log report download", zap.Error(err))
	}

	s.logger.Info("Dispatch report generated",
		zap.String("report_type", reportType),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("rows", len(rows)))

	return data, nil
}

// BuildWorkbook renders dispatch rows into an xlsx workbook: one row per
// product plus a bold total-quantity summary row.
func BuildWorkbook(rows []storage.OperatorProductUpdate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 15)
	f.SetColWidth(sheetName, "C", "C", 25)

	headers := []string{"Product", "Quantity", "Date"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	total := 0
	for i, row := range rows {
		line := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", line), row.Product)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", line), row.Quantity)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", line), row.CreatedAt.Format("2006-01-02 15:04:05"))
		total += row.Quantity
	}

	// Blank spacer row, then the bold summary
	summaryLine := len(rows) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryLine), "Total Products Dispatched:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryLine), total)

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(sheetName,
		fmt.Sprintf("A%d", summaryLine), fmt.Sprintf("B%d", summaryLine), boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style summary row: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
