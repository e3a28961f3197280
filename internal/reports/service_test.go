package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/floortrack/floortrack/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestRange(t *testing.T) {
	// Wednesday
	now := time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC)

	start, end, err := Range("daily", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 18, end.Day())
	assert.Equal(t, 23, end.Hour())

	start, _, err = Range("weekly", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), start, "week starts Sunday")

	start, _, err = Range("monthly", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)

	// Explicit range overrides the report type
	start, end, err = Range("daily", "2025-01-10", "2025-01-12", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 12, end.Day())
	assert.Equal(t, 59, end.Minute())

	_, _, err = Range("hourly", "", "", now)
	assert.Error(t, err)

	_, _, err = Range("daily", "not-a-date", "2025-01-12", now)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Daily Dispatched Products Report", Name("daily"))
	assert.Equal(t, "Weekly_Dispatched_Products_Report.xlsx", Filename("weekly"))
}

func TestBuildWorkbook(t *testing.T) {
	rows := []storage.OperatorProductUpdate{
		{Product: "Widget A", Quantity: 3, CreatedAt: time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)},
		{Product: "Widget B", Quantity: 2, CreatedAt: time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)},
	}

	data, err := BuildWorkbook(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(sheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Widget A", name)

	label, err := f.GetCellValue(sheetName, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Total Products Dispatched:", label)

	total, err := f.GetCellValue(sheetName, "B5")
	require.NoError(t, err)
	assert.Equal(t, "5", total)
}

type fakeReportStore struct {
	rows   []storage.OperatorProductUpdate
	logged []string
}

func (f *fakeReportStore) ListPendingDispatches(_ context.Context, _, _ time.Time) ([]storage.OperatorProductUpdate, error) {
	return f.rows, nil
}

func (f *fakeReportStore) CreateReportDownload(_ context.Context, reportName string) error {
	f.logged = append(f.logged, reportName)
	return nil
}

func TestGenerate(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewService(store, zap.NewNop())

	_, err := svc.Generate(context.Background(), "daily", "", "")
	assert.ErrorIs(t, err, ErrNoRows)

	store.rows = []storage.OperatorProductUpdate{
		{Product: "Widget A", Quantity: 1, CreatedAt: time.Now()},
	}
	data, err := svc.Generate(context.Background(), "daily", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, []string{"Daily Dispatched Products Report"}, store.logged)
}
