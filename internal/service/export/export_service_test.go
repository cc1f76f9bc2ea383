package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/memory"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

func strPtr(s string) *string { return &s }

var testLetterhead = Letterhead{
	Name:     "Aguacates Ramírez",
	Registry: "Registro SAGARPA: EMP0416058459/2021",
	Address:  "Prolongación Linda Vista Carr. San Juan Nuevo - Tancítaro",
}

func sampleSale() models.SalesRecord {
	return models.SalesRecord{
		ID:             3,
		NoteNumber:     42,
		Date:           "2025-01-05",
		TransactionKey: strPtr("t1"),
		ClientName:     "Juan Pérez",
		City:           strPtr("Uruapan"),
		Lines: []models.LineItem{
			{QuantityKg: 300, Label: "EXTRA", UnitPrice: 10, Amount: 3000},
			{QuantityKg: 200, Label: "1RA", UnitPrice: 8.5, Amount: 1700},
		},
		Total: 4700,
	}
}

func TestWorkbookFlattensLineItems(t *testing.T) {
	intake := []models.IntakeRow{{ID: 1, TransactionKey: strPtr("t1"), ClientName: "Juan Pérez", ProductType: models.ProductNegroTamano, QuantityKg: 500, Timestamp: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}}
	grading := []models.GradingRow{{ID: 1, TransactionKey: strPtr("t1"), ClientName: "Juan Pérez", Date: "2025-01-02", SizeCategory: models.SizeExtra, Boxes: 10, QuantityKg: 300}}

	f, err := Workbook([]models.SalesRecord{sampleSale()}, intake, grading)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	back, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = back.Close() }()

	assert.Equal(t, []string{SheetSales, SheetSalesDetail, SheetIntake, SheetGrading}, back.GetSheetList())

	detail, err := back.GetRows(SheetSalesDetail)
	require.NoError(t, err)
	require.Len(t, detail, 3)
	assert.Equal(t, []string{"3", "42", "200", "1RA", "8.5", "1700"}, detail[2])

	salesRows, err := back.GetRows(SheetSales)
	require.NoError(t, err)
	require.Len(t, salesRows, 2)
	assert.Equal(t, "Juan Pérez", salesRows[1][4])

	intakeRows, err := back.GetRows(SheetIntake)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01 08:00:00", intakeRows[1][6])
}

func TestFetchAllPagesUntilShortPage(t *testing.T) {
	tests := []struct {
		total     int
		wantCalls int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{2500, 3},
	}

	for _, tc := range tests {
		rows := make([]int, tc.total)
		for i := range rows {
			rows[i] = i
		}
		calls := 0
		list := func(_ context.Context, q mongodb.Query) ([]int, error) {
			calls++
			assert.True(t, q.Ascending)
			assert.Equal(t, int64(PageSize), q.Limit)
			start := int(q.Offset)
			if start > len(rows) {
				start = len(rows)
			}
			end := start + PageSize
			if end > len(rows) {
				end = len(rows)
			}
			return rows[start:end], nil
		}

		got, err := fetchAll(context.Background(), list)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
		assert.Equal(t, tc.wantCalls, calls, "total %d", tc.total)
	}
}

func TestExportAllReadsEveryRow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rows := make([]models.IntakeRow, 1203)
	for i := range rows {
		rows[i] = models.IntakeRow{ClientName: "Ana", ProductType: models.ProductDesecho, QuantityKg: 1, Timestamp: time.Unix(int64(i), 0).UTC()}
	}
	_, err := store.InsertIntakeRows(ctx, rows)
	require.NoError(t, err)

	data, err := NewService(store, testLetterhead, nil).ExportAll(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := f.GetRows(SheetIntake)
	require.NoError(t, err)
	assert.Len(t, got, 1204, "header plus every row")
}

func TestSalesNotePDF(t *testing.T) {
	doc, err := SalesNotePDF(sampleSale(), testLetterhead)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))

	long := sampleSale()
	for i := 0; i < 80; i++ {
		long.Lines = append(long.Lines, models.LineItem{QuantityKg: 1, Label: "2DA", UnitPrice: 1, Amount: 1})
	}
	multi, err := SalesNotePDF(long, testLetterhead)
	require.NoError(t, err)
	assert.Greater(t, len(multi), len(doc))
}

func TestSalesNoteMissingSale(t *testing.T) {
	_, _, err := NewService(memory.New(), testLetterhead, nil).SalesNote(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$0.00", FormatMoney(0))
	assert.Equal(t, "$3,000.00", FormatMoney(3000))
	assert.Equal(t, "$1,234,567.89", FormatMoney(1234567.891))
	assert.Equal(t, "-$12.50", FormatMoney(-12.5))
	assert.Equal(t, "05/01/2025", displayDate("2025-01-05"))
	assert.Equal(t, "garbage", displayDate("garbage"))
}
