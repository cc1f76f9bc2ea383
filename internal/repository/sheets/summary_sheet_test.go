package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

type fakeValues struct {
	rows [][]interface{}
}

func (f *fakeValues) append(_ context.Context, _ string, row []interface{}) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeValues) get(_ context.Context, _ string) ([][]interface{}, error) {
	out := make([][]interface{}, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r[:1])
	}
	return out, nil
}

func TestAppendDailyReportWritesHeaderOnceAndSkipsKnownDates(t *testing.T) {
	values := &fakeValues{}
	repo := &GoogleSheetRepository{values: values, logger: zap.NewNop()}
	ctx := context.Background()

	report := models.DailyReport{Date: "2025-01-02", IntakeKg: 700, IntakeTransactions: 1, GradedKg: 500, GradedBoxes: 15, SalesCount: 1, SalesAmount: 3000}
	require.NoError(t, repo.AppendDailyReport(ctx, report))
	require.NoError(t, repo.AppendDailyReport(ctx, report))

	report.Date = "2025-01-03"
	require.NoError(t, repo.AppendDailyReport(ctx, report))

	require.Len(t, values.rows, 3)
	assert.Equal(t, "Fecha", values.rows[0][0])
	assert.Equal(t, []interface{}{"2025-01-02", 700.0, 1, 500.0, 15, 1, 3000.0}, values.rows[1])
	assert.Equal(t, "2025-01-03", values.rows[2][0])
}
